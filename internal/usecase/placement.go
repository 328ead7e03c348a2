package usecase

import (
	"context"
	"fmt"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	"TradeGate/pkg/logger"
)

// ErrRejected wraps an admission rejection so callers can distinguish it
// from transport failures.
type ErrRejected struct {
	Decision *models.Decision
}

func (e *ErrRejected) Error() string {
	if e.Decision != nil && e.Decision.Conflict != nil {
		return fmt.Sprintf("admission rejected: %s", e.Decision.Conflict.Type)
	}
	return "admission rejected"
}

// ErrTierLimit wraps a tier value-cap rejection.
type ErrTierLimit struct {
	Violation *models.TierViolation
}

func (e *ErrTierLimit) Error() string {
	return e.Violation.Message
}

// PlacementWorkflow runs the full submit path: tier value check, conflict
// evaluation, registration, exchange placement. A placement failure rolls the
// registration back so the active set never counts an order the exchange
// never saw.
type PlacementWorkflow struct {
	admission *AdmissionEngine
	placer    drepo.OrderPlacer
	log       *logger.Logger
}

// NewPlacementWorkflow wires the submit path.
func NewPlacementWorkflow(admission *AdmissionEngine, placer drepo.OrderPlacer, log *logger.Logger) *PlacementWorkflow {
	return &PlacementWorkflow{admission: admission, placer: placer, log: log}
}

// Submit takes a request through admission and out to the exchange. On
// rejection it returns the decision inside ErrRejected; the caller relays the
// conflict and alternatives to the user.
func (w *PlacementWorkflow) Submit(ctx context.Context, req *models.TradeRequest) (*models.Decision, *models.OrderAck, error) {
	if v := w.admission.CheckTierLimits(req.Tier, req); v != nil {
		return nil, nil, &ErrTierLimit{Violation: v}
	}

	decision, err := w.admission.Evaluate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Admitted {
		return decision, nil, &ErrRejected{Decision: decision}
	}

	if err := w.admission.Register(ctx, req); err != nil {
		return decision, nil, err
	}

	ack, err := w.placer.PlaceOrder(ctx, req)
	if err != nil {
		w.admission.Unregister(ctx, req)
		w.log.Error("placement failed, registration rolled back",
			logger.Error(err),
			logger.String("user_id", req.UserID),
			logger.String("symbol", req.Symbol),
		)
		return decision, nil, fmt.Errorf("place order: %w", err)
	}

	return decision, ack, nil
}
