// Package frontier coordinates the crawl's discovered-but-unfetched
// URLs and the visited set guaranteeing at-most-once fetches.
package frontier

import (
	"context"
	"sync"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// Frontier is the shared coordinator between all fetch workers. Every
// canonical URL passes through Offer exactly once; Claim hands each
// pending URL to exactly one worker; Complete retires it. Termination
// is detected under the same lock that guards the queue: the crawl is
// over when no URLs are pending and no claims are outstanding.
type Frontier struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	pending  []urlutil.URL
	claimed  map[string]struct{}
	inflight int
	done     bool
	wake     chan struct{}
}

// New returns an empty frontier. Seed it with Offer before starting
// workers, otherwise the first Claim reports immediate completion.
func New() *Frontier {
	return &Frontier{
		seen:    make(map[string]struct{}),
		claimed: make(map[string]struct{}),
		wake:    make(chan struct{}),
	}
}

// Offer admits u into the pending queue iff its canonical identity has
// never been offered or marked visited before. Returns whether the URL
// was admitted.
func (f *Frontier) Offer(u urlutil.URL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return false
	}
	key := u.Key()
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	f.pending = append(f.pending, u)
	f.wakeLocked()
	return true
}

// MarkVisited records u as seen without queueing it. Used for the
// final URL of a followed redirect so that later discoveries of that
// location do not trigger a second fetch.
func (f *Frontier) MarkVisited(u urlutil.URL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := u.Key()
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// Claim blocks until a pending URL is available and hands it to the
// caller, marking it in-flight. It returns ok=false when the crawl is
// complete (nothing pending, nothing in-flight) or ctx is cancelled.
func (f *Frontier) Claim(ctx context.Context) (urlutil.URL, bool) {
	for {
		f.mu.Lock()
		if len(f.pending) > 0 {
			u := f.pending[0]
			f.pending = f.pending[1:]
			f.inflight++
			f.claimed[u.Key()] = struct{}{}
			f.mu.Unlock()
			return u, true
		}
		if f.done || f.inflight == 0 {
			f.done = true
			f.wakeLocked()
			f.mu.Unlock()
			return urlutil.URL{}, false
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return urlutil.URL{}, false
		case <-wake:
		}
	}
}

// Complete marks a previously claimed URL as done. When the last
// in-flight URL completes against an empty queue the frontier closes
// and all blocked Claim calls return.
func (f *Frontier) Complete(u urlutil.URL) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := u.Key()
	if _, ok := f.claimed[key]; !ok {
		return
	}
	delete(f.claimed, key)
	f.inflight--
	if f.inflight == 0 && len(f.pending) == 0 {
		f.done = true
	}
	f.wakeLocked()
}

// Stats returns the current queue depth, the number of in-flight
// claims and the total number of distinct URLs ever seen.
func (f *Frontier) Stats() (pending, inflight, seen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending), f.inflight, len(f.seen)
}

// wakeLocked broadcasts to every blocked Claim by closing the current
// generation channel. Callers must hold f.mu.
func (f *Frontier) wakeLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}
