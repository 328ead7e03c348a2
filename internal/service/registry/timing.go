package registry

import (
	"time"

	"TradeGate/internal/domain/models"
)

// Analyzer detects temporally clustered requests on one symbol. Near
// simultaneous orders from multiple sources are a signature of manipulation
// clustering or naive bot replication; window and threshold are policy
// constants, not learned.
type Analyzer struct {
	reg       *Registry
	window    time.Duration
	threshold int
}

// NewAnalyzer creates an analyzer over the registry's active sets.
func NewAnalyzer(reg *Registry, window time.Duration, threshold int) *Analyzer {
	return &Analyzer{reg: reg, window: window, threshold: threshold}
}

// Concurrent returns the symbol's active requests whose submission time is
// within the window of the candidate timestamp, in either direction.
func (a *Analyzer) Concurrent(symbol string, at time.Time) []models.TradeRequest {
	return a.ConcurrentIn(a.reg.Snapshot(symbol), at)
}

// ConcurrentIn filters an already-taken active-set snapshot, for callers that
// must run several rules against one consistent view of the symbol.
func (a *Analyzer) ConcurrentIn(orders []models.TradeRequest, at time.Time) []models.TradeRequest {
	var hits []models.TradeRequest
	for _, o := range orders {
		d := o.SubmittedAt.Sub(at)
		if d < 0 {
			d = -d
		}
		if d <= a.window {
			hits = append(hits, o)
		}
	}
	return hits
}

// Collision reports whether admitting a request at the candidate timestamp
// would put the window's population at or above the threshold. The candidate
// itself counts, so threshold 3 fires once 2 requests are already in window.
func (a *Analyzer) Collision(symbol string, at time.Time) ([]models.TradeRequest, bool) {
	return a.CollisionIn(a.reg.Snapshot(symbol), at)
}

// CollisionIn is Collision over a caller-provided snapshot.
func (a *Analyzer) CollisionIn(orders []models.TradeRequest, at time.Time) ([]models.TradeRequest, bool) {
	hits := a.ConcurrentIn(orders, at)
	return hits, len(hits)+1 >= a.threshold
}

// Window returns the configured detection window.
func (a *Analyzer) Window() time.Duration { return a.window }

// Threshold returns the configured collision threshold.
func (a *Analyzer) Threshold() int { return a.threshold }
