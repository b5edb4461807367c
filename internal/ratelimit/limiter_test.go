package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(capacity int, window time.Duration) (*Limiter, *time.Time) {
	l := New(capacity, window)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowRespectsCapacity(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, 3, l.InFlight())
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)

	require.True(t, l.Allow())
	*now = now.Add(30 * time.Second)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	// First admission ages out; exactly one slot opens.
	*now = now.Add(31 * time.Second)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestNoRollingWindowOverrun(t *testing.T) {
	// Regardless of how the clock advances, no 60s span may ever contain
	// more than capacity admissions.
	l, now := newTestLimiter(5, time.Minute)

	var admitted []time.Time
	for i := 0; i < 200; i++ {
		if l.Allow() {
			admitted = append(admitted, *now)
		}
		*now = now.Add(7 * time.Second)
	}

	for i := range admitted {
		count := 1
		for j := i + 1; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < time.Minute {
				count++
			}
		}
		assert.LessOrEqual(t, count, 5)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitReturnsImmediatelyWhenFree(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	done := make(chan error, 1)
	go func() { done <- l.Wait(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Wait did not return promptly with a free slot")
	}
}
