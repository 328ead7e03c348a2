package reaper

import (
	"context"
	"time"

	"TradeGate/internal/domain/repository"
	"TradeGate/internal/service/registry"
	"TradeGate/pkg/clock"
	"TradeGate/pkg/logger"
)

// Reaper periodically evicts registry entries older than the retention TTL.
// It is the engine's only reclamation path for requests whose Complete call
// never arrives: bounded staleness, not a correctness guarantee.
type Reaper struct {
	reg      *registry.Registry
	interval time.Duration
	ttl      time.Duration
	clk      clock.Clock
	log      *logger.Logger
	metrics  repository.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a reaper over the registry.
func New(reg *registry.Registry, interval, ttl time.Duration, clk clock.Clock, log *logger.Logger, metrics repository.Metrics) *Reaper {
	return &Reaper{
		reg:      reg,
		interval: interval,
		ttl:      ttl,
		clk:      clk,
		log:      log,
		metrics:  metrics,
	}
}

// Start launches the sweep loop in the background until Stop or ctx
// cancellation.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce()
			}
		}
	}()
}

// RunOnce performs a single sweep. Exposed so tests and operators can force a
// pass without waiting for the ticker.
func (r *Reaper) RunOnce() int {
	cutoff := r.clk.Now().Add(-r.ttl)
	removed := r.reg.Sweep(cutoff)
	if removed > 0 {
		r.metrics.RecordReap(removed)
		r.log.Info("reaper: evicted stale entries",
			logger.Int("removed", removed),
			logger.Duration("ttl", r.ttl),
		)
	}
	return removed
}

// Stop cancels the sweep loop and waits for it to exit.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
