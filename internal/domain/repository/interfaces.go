package repository

import (
	"context"

	"TradeGate/internal/domain/models"

	"github.com/shopspring/decimal"
)

// VolumeOracle supplies estimated daily traded volume (quote currency) for a
// symbol. The second return reports whether the oracle knows the symbol, so
// callers can tell live data from a miss instead of a silent fallback.
type VolumeOracle interface {
	EstimatedDailyVolume(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// SimilarityScorer scores how alike two strategy tags are on [0, 1]. Kept as a
// one-method interface so the heuristic matcher can be swapped for a real
// model without touching the admission pipeline.
type SimilarityScorer interface {
	Similarity(a, b string) float64
}

// OrderPlacer is the external exchange collaborator that actually places
// admitted orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *models.TradeRequest) (*models.OrderAck, error)
}

// DecisionPublisher exports admission outcomes to the external trade-history
// store. Implementations must be safe for concurrent use.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, ev *models.DecisionEvent) error
	Close() error
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TickerStats, <-chan error)
	Close() error
}

type Metrics interface {
	RecordDecision(outcome, conflictType string)
	RecordError(kind string)
	RecordEvaluateLatency(seconds float64)
	RecordLimiterWait(seconds float64)
	RecordReap(removed int)
	SetActiveOrders(symbol string, n int)
	RecordOrderPlaced(symbol, side string)
}
