package ratelimit

import (
	"context"
	"testing"
	"time"

	"TradeGate/pkg/clock"
)

func TestRejectsBadConfig(t *testing.T) {
	if _, err := New(0, time.Minute); err == nil {
		t.Fatalf("cap 0 must fail at construction")
	}
	if _, err := New(-1, time.Minute); err == nil {
		t.Fatalf("negative cap must fail at construction")
	}
	if _, err := New(10, 0); err == nil {
		t.Fatalf("zero window must fail at construction")
	}
}

func TestWindowCountNeverExceedsCap(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	l, err := New(5, time.Minute, WithClock(fake))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// Waiting advances the fake clock instead of sleeping.
	l.sleep = func(_ context.Context, d time.Duration) error {
		fake.Advance(d)
		return nil
	}

	for i := 0; i < 50; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		if got := l.InWindow(); got > 5 {
			t.Fatalf("window count %d exceeds cap after call %d", got, i)
		}
		fake.Advance(time.Second)
	}
}

func TestWaitDelaysUntilOldestAgesOut(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)
	l, err := New(2, time.Minute, WithClock(fake))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var slept time.Duration
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		fake.Advance(d)
		return nil
	}

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait 1: %v", err)
	}
	fake.Advance(10 * time.Second)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait 2: %v", err)
	}
	if slept != 0 {
		t.Fatalf("first two calls should not block, slept %s", slept)
	}

	// Third call must wait for the first stamp to leave the window: the first
	// stamp is 10s old, so 50s remain.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait 3: %v", err)
	}
	if slept != 50*time.Second {
		t.Fatalf("slept %s, want 50s", slept)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	l, err := New(1, time.Hour, WithClock(fake))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatalf("cancelled wait must return error")
	}
}

func TestRealSleepPath(t *testing.T) {
	l, err := New(1, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait 1: %v", err)
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait 2: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("second call should have slept, elapsed %s", elapsed)
	}
}
