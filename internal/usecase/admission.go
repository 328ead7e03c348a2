package usecase

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	"TradeGate/internal/service/alternatives"
	"TradeGate/internal/service/registry"
	"TradeGate/internal/service/risk"
	"TradeGate/pkg/clock"
	"TradeGate/pkg/logger"
)

// AdmissionEngine is the admission-control facade. Evaluate is advisory and
// never mutates the active set; Register and Complete are the explicit state
// transitions driven by external order confirmations.
type AdmissionEngine struct {
	reg      *registry.Registry
	scorer   *risk.Scorer
	recs     *alternatives.Recommender
	pub      drepo.DecisionPublisher
	metrics  drepo.Metrics
	log      *logger.Logger
	clk      clock.Clock
	altCount int
}

// NewAdmissionEngine wires the admission facade.
func NewAdmissionEngine(
	reg *registry.Registry,
	scorer *risk.Scorer,
	recs *alternatives.Recommender,
	pub drepo.DecisionPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	clk clock.Clock,
) *AdmissionEngine {
	return &AdmissionEngine{
		reg:      reg,
		scorer:   scorer,
		recs:     recs,
		pub:      pub,
		metrics:  metrics,
		log:      log,
		clk:      clk,
		altCount: 3,
	}
}

// Evaluate validates the request, records the submission for timing analysis,
// and runs the conflict rule chain. A rejected request carries alternative
// symbol suggestions. The active set is never mutated here.
func (e *AdmissionEngine) Evaluate(ctx context.Context, req *models.TradeRequest) (*models.Decision, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = e.clk.Now()
	}
	if err := req.Validate(); err != nil {
		e.metrics.RecordError("validation")
		return nil, err
	}

	start := e.clk.Now()
	e.reg.RecordSubmission(req.UserID, req.SubmittedAt)

	conflict := e.scorer.Evaluate(ctx, req)
	decision := &models.Decision{
		Admitted: conflict == nil,
		Conflict: conflict,
	}
	if conflict != nil {
		decision.Alternatives = e.recs.Suggest(req.Symbol, e.altCount)
	}

	e.observe(ctx, req, decision, e.clk.Now().Sub(start).Seconds())
	return decision, nil
}

// Register adds a confirmed order to the active set.
func (e *AdmissionEngine) Register(ctx context.Context, req *models.TradeRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = e.clk.Now()
	}
	if err := req.Validate(); err != nil {
		e.metrics.RecordError("validation")
		return err
	}

	e.reg.Register(*req)
	e.metrics.SetActiveOrders(req.Symbol, e.reg.ActiveOrders(req.Symbol))
	e.log.Debug("order registered",
		logger.String("user_id", req.UserID),
		logger.String("symbol", req.Symbol),
	)
	return nil
}

// Unregister removes the single order identified by req.ID, leaving the
// user's other orders on the symbol untouched.
func (e *AdmissionEngine) Unregister(ctx context.Context, req *models.TradeRequest) bool {
	removed := e.reg.Remove(req.ID, req.Symbol)
	if removed {
		e.metrics.SetActiveOrders(req.Symbol, e.reg.ActiveOrders(req.Symbol))
	}
	return removed
}

// Complete removes all of the user's active orders on the symbol and returns
// how many were removed. Completing an absent pair is a no-op.
func (e *AdmissionEngine) Complete(ctx context.Context, userID, symbol string) int {
	removed := e.reg.Complete(userID, symbol)
	e.metrics.SetActiveOrders(symbol, e.reg.ActiveOrders(symbol))
	if removed > 0 {
		e.log.Debug("orders completed",
			logger.String("user_id", userID),
			logger.String("symbol", symbol),
			logger.Int("removed", removed),
		)
	}
	return removed
}

// Status returns the per-symbol view of the active set, sorted by symbol.
func (e *AdmissionEngine) Status(ctx context.Context) []models.SymbolStatus {
	out := e.reg.Status()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// StatusFor returns the view for one symbol.
func (e *AdmissionEngine) StatusFor(ctx context.Context, symbol string) models.SymbolStatus {
	return e.reg.StatusFor(symbol)
}

// MarketRisk grades the advisory crowding risk for a symbol.
func (e *AdmissionEngine) MarketRisk(ctx context.Context, symbol string) models.MarketRisk {
	return e.scorer.AssessMarketRisk(symbol)
}

// Alternatives suggests substitute symbols, excluding the one given.
func (e *AdmissionEngine) Alternatives(ctx context.Context, symbol string, count int) []models.AlternativeSymbol {
	if count <= 0 {
		count = e.altCount
	}
	return e.recs.Suggest(symbol, count)
}

// CheckTierLimits applies the standalone per-trade value check.
func (e *AdmissionEngine) CheckTierLimits(tier models.Tier, req *models.TradeRequest) *models.TierViolation {
	return e.scorer.CheckTierLimits(tier, req.Notional())
}

func (e *AdmissionEngine) observe(ctx context.Context, req *models.TradeRequest, d *models.Decision, seconds float64) {
	outcome := "admitted"
	conflictType := ""
	var severity string
	if d.Conflict != nil {
		outcome = "rejected"
		conflictType = string(d.Conflict.Type)
		severity = string(d.Conflict.Severity)
	}
	e.metrics.RecordDecision(outcome, conflictType)
	e.metrics.RecordEvaluateLatency(seconds)

	ev := &models.DecisionEvent{
		RequestID: req.ID.String(),
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Tier:      req.Tier,
		Admitted:  d.Admitted,
		Conflict:  conflictType,
		Severity:  severity,
		Notional:  req.Notional().String(),
		At:        req.SubmittedAt,
	}
	if err := e.pub.PublishDecision(ctx, ev); err != nil {
		e.metrics.RecordError("publish_decision")
		e.log.Warn("decision publish failed",
			logger.Error(err),
			logger.String("request_id", ev.RequestID),
		)
	}

	e.log.Info("admission decision",
		logger.String("request_id", ev.RequestID),
		logger.String("user_id", req.UserID),
		logger.String("symbol", req.Symbol),
		logger.String("outcome", outcome),
		logger.String("conflict", conflictType),
	)
}
