package fetch

import (
	"context"
	"time"
)

// Backoff is the retry budget for a single resource, modeled as an
// explicit state machine: attempt counter plus next delay, doubling up
// to a cap.
type Backoff struct {
	attempt int
	max     int
	next    time.Duration
	cap     time.Duration
}

// NewBackoff allows max additional attempts after the first, starting
// with the base delay.
func NewBackoff(max int, base time.Duration) *Backoff {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &Backoff{max: max, next: base, cap: 30 * time.Second}
}

// Next consumes one retry attempt. It returns the delay to wait before
// the attempt and false once the budget is exhausted.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.attempt >= b.max {
		return 0, false
	}
	b.attempt++
	delay := b.next
	b.next *= 2
	if b.next > b.cap {
		b.next = b.cap
	}
	return delay, true
}

// Attempts returns how many retries have been consumed.
func (b *Backoff) Attempts() int { return b.attempt }

// Sleep waits for the given delay unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
