package reaper

import (
	"context"
	"testing"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/service/registry"
	"TradeGate/pkg/clock"
	"TradeGate/pkg/logger"

	"github.com/shopspring/decimal"
)

type nopMetrics struct{ reaped int }

func (m *nopMetrics) RecordDecision(string, string)    {}
func (m *nopMetrics) RecordError(string)               {}
func (m *nopMetrics) RecordEvaluateLatency(float64)    {}
func (m *nopMetrics) RecordLimiterWait(float64)        {}
func (m *nopMetrics) RecordReap(removed int)           { m.reaped += removed }
func (m *nopMetrics) SetActiveOrders(string, int)      {}
func (m *nopMetrics) RecordOrderPlaced(string, string) {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestRunOnceEvictsOnlyStaleEntries(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base.Add(4 * time.Minute))
	reg := registry.New()
	price := decimal.NewFromInt(100)
	reg.Register(models.TradeRequest{UserID: "stale", Symbol: "BTCUSDT", Quantity: decimal.NewFromInt(1), Price: &price, SubmittedAt: base})
	reg.Register(models.TradeRequest{UserID: "fresh", Symbol: "BTCUSDT", Quantity: decimal.NewFromInt(1), Price: &price, SubmittedAt: base.Add(2 * time.Minute)})
	reg.RecordSubmission("stale", base)

	m := &nopMetrics{}
	r := New(reg, time.Minute, 3*time.Minute, fake, testLogger(t), m)

	if removed := r.RunOnce(); removed != 2 {
		t.Fatalf("removed = %d, want 2 (stale order + stale stamp)", removed)
	}
	if m.reaped != 2 {
		t.Fatalf("metrics reaped = %d, want 2", m.reaped)
	}
	if !reg.HasUser("BTCUSDT", "fresh") {
		t.Fatalf("fresh entry must survive")
	}
	if reg.HasUser("BTCUSDT", "stale") {
		t.Fatalf("stale entry must be gone")
	}

	// After a sweep, no retained entry may be older than the TTL.
	cutoff := fake.Now().Add(-3 * time.Minute)
	for _, o := range reg.Snapshot("BTCUSDT") {
		if o.SubmittedAt.Before(cutoff) {
			t.Fatalf("entry older than TTL survived: %v", o.SubmittedAt)
		}
	}
}

func TestRunOnceQuietWhenNothingStale(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	r := New(registry.New(), time.Minute, 3*time.Minute, fake, testLogger(t), &nopMetrics{})
	if removed := r.RunOnce(); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}

func TestStartStop(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	r := New(registry.New(), 5*time.Millisecond, time.Minute, fake, testLogger(t), &nopMetrics{})

	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return")
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := New(registry.New(), time.Minute, time.Minute, clock.System{}, testLogger(t), &nopMetrics{})
	r.Stop() // must not panic or block
}
