// Package ratelimit provides an in-process sliding-window rate limiter for
// venue API calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// retryBackoff is how long an exhausted caller sleeps before rechecking.
const retryBackoff = time.Second

// Limiter admits at most capacity calls within any rolling window. Admission
// timestamps are tracked on a monotonic clock so wall-clock adjustments never
// distort the window.
type Limiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	stamps   []time.Time
	now      func() time.Time
}

// New creates a Limiter admitting capacity calls per window. A capacity below
// one is clamped to one; a non-positive window defaults to a minute.
func New(capacity int, window time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether a call can proceed right now, recording the admission
// when it can.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) >= l.capacity {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Wait blocks until an admission slot is available or the context is done.
// Exhausted callers sleep and retry rather than spinning.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}

		timer := time.NewTimer(retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// InFlight returns the number of admissions currently inside the window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops admissions that have aged out of the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
