package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradeGate/pkg/clock"
)

// Limiter bounds outbound exchange API calls to at most max timestamps inside
// a rolling window. It never rejects: Wait delays the caller until the oldest
// recorded call ages out, then records the new one. Misconfiguration (cap or
// window <= 0) is a construction error, not a runtime stall.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	clk    clock.Clock
	sleep  func(ctx context.Context, d time.Duration) error
	stamps []time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects a clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clk = c }
}

// New creates a sliding-window limiter.
func New(max int, window time.Duration, opts ...Option) (*Limiter, error) {
	if max <= 0 {
		return nil, fmt.Errorf("ratelimit: max requests must be positive, got %d", max)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", window)
	}
	l := &Limiter{
		window: window,
		max:    max,
		clk:    clock.System{},
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Wait blocks until the trailing window has room, records the call timestamp,
// and returns. It only errors when ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clk.Now()
		l.prune(now)
		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		delay := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// InWindow reports how many recorded calls are inside the trailing window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clk.Now())
	return len(l.stamps)
}

// prune drops timestamps older than the window. Caller holds the lock.
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

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
