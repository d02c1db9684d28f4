package frontier

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

func mustParse(t *testing.T, raw string) urlutil.URL {
	t.Helper()
	u, err := urlutil.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestOfferDeduplicates(t *testing.T) {
	f := New()
	u := mustParse(t, "http://example.com/a")

	if !f.Offer(u) {
		t.Fatal("first Offer rejected")
	}
	if f.Offer(u) {
		t.Error("second Offer of the same URL admitted")
	}
	// A different spelling of the same canonical URL must also be rejected.
	dup := mustParse(t, "HTTP://EXAMPLE.COM:80/a#x")
	if f.Offer(dup) {
		t.Error("Offer of identically canonicalizing URL admitted")
	}
}

func TestMarkVisitedBlocksOffer(t *testing.T) {
	f := New()
	u := mustParse(t, "http://example.com/redirected")
	if !f.MarkVisited(u) {
		t.Fatal("MarkVisited on fresh URL returned false")
	}
	if f.Offer(u) {
		t.Error("Offer admitted a URL already marked visited")
	}
}

func TestClaimCompleteTermination(t *testing.T) {
	f := New()
	f.Offer(mustParse(t, "http://example.com/"))

	u, ok := f.Claim(context.Background())
	if !ok {
		t.Fatal("Claim returned no URL for a seeded frontier")
	}
	f.Complete(u)

	if _, ok := f.Claim(context.Background()); ok {
		t.Error("Claim returned a URL after the frontier drained")
	}
}

func TestClaimAtMostOnceUnderConcurrency(t *testing.T) {
	f := New()
	const n = 200
	urls := make([]urlutil.URL, 0, n)
	for i := 0; i < n; i++ {
		u := mustParse(t, "http://example.com/page/"+strconv.Itoa(i))
		urls = append(urls, u)
		f.Offer(u)
	}

	var mu sync.Mutex
	counts := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				u, ok := f.Claim(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				counts[u.Key()]++
				mu.Unlock()
				f.Complete(u)
			}
		}()
	}
	wg.Wait()

	if len(counts) != len(dedup(urls)) {
		t.Fatalf("claimed %d distinct URLs, want %d", len(counts), len(dedup(urls)))
	}
	for key, c := range counts {
		if c != 1 {
			t.Errorf("URL %s claimed %d times", key, c)
		}
	}
}

func TestClaimWakesOnLateOffer(t *testing.T) {
	f := New()
	first := mustParse(t, "http://example.com/first")
	second := mustParse(t, "http://example.com/second")
	f.Offer(first)

	u, ok := f.Claim(context.Background())
	if !ok || u.Key() != first.Key() {
		t.Fatalf("Claim = %v, %v", u, ok)
	}

	got := make(chan bool, 1)
	go func() {
		// Blocks: queue is empty but one claim is in flight.
		_, ok := f.Claim(context.Background())
		got <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	f.Offer(second)
	select {
	case ok := <-got:
		if !ok {
			t.Error("blocked Claim reported completion instead of the late offer")
		}
	case <-time.After(time.Second):
		t.Fatal("Claim did not wake on a late Offer")
	}
	f.Complete(second)
	f.Complete(first)
}

func TestClaimUnblocksOnCancel(t *testing.T) {
	f := New()
	f.Offer(mustParse(t, "http://example.com/busy"))
	if _, ok := f.Claim(context.Background()); !ok {
		t.Fatal("seed claim failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := f.Claim(ctx); ok {
			t.Error("cancelled Claim returned a URL")
		}
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Claim did not unblock on context cancellation")
	}
}

func dedup(urls []urlutil.URL) map[string]struct{} {
	m := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		m[u.Key()] = struct{}{}
	}
	return m
}
