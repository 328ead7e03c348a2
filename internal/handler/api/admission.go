package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/usecase"
	xhttp "TradeGate/pkg/http"
	xlogger "TradeGate/pkg/logger"
)

// AdmissionHandler exposes the admission engine over HTTP.
type AdmissionHandler struct {
	logger    *xlogger.Logger
	admission *usecase.AdmissionEngine
	placement *usecase.PlacementWorkflow
}

func NewAdmissionHandler(logger *xlogger.Logger, admission *usecase.AdmissionEngine, placement *usecase.PlacementWorkflow) *AdmissionHandler {
	return &AdmissionHandler{logger: logger, admission: admission, placement: placement}
}

func (h *AdmissionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/admission/evaluate", h.Evaluate)
	g.POST("/admission/register", h.Register)
	g.POST("/admission/complete", h.Complete)
	g.GET("/admission/status", h.Status)
	g.GET("/market/risk", h.MarketRisk)
	g.GET("/alternatives", h.Alternatives)
	g.POST("/orders", h.PlaceOrder)
}

// Evaluate runs the conflict rules without touching the active set.
func (h *AdmissionHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trade, err := toTradeRequest(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	decision, err := h.admission.Evaluate(c.Request().Context(), trade)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return xhttp.BadRequestResponse(c, verr.Error())
		}
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, decision)
}

// Register adds a confirmed order to the active set.
func (h *AdmissionHandler) Register(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trade, err := toTradeRequest(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if err := h.admission.Register(c.Request().Context(), trade); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return xhttp.BadRequestResponse(c, verr.Error())
		}
		h.logger.Error("register usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"request_id": trade.ID.String()})
}

// Complete clears the user's active orders on a symbol.
func (h *AdmissionHandler) Complete(c echo.Context) error {
	req := &models.CompleteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	removed := h.admission.Complete(c.Request().Context(), req.UserID, req.Symbol)
	return xhttp.SuccessResponse(c, map[string]int{"removed": removed})
}

// Status returns the per-symbol active-set view. With ?symbol= it returns
// a single entry.
func (h *AdmissionHandler) Status(c echo.Context) error {
	req := &models.StatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if req.Symbol != "" {
		return xhttp.SuccessResponse(c, h.admission.StatusFor(ctx, req.Symbol))
	}
	statuses := h.admission.Status(ctx)
	return xhttp.ListResponse(c, statuses, int64(len(statuses)))
}

// MarketRisk grades advisory crowding risk for a symbol.
func (h *AdmissionHandler) MarketRisk(c echo.Context) error {
	req := &models.MarketRiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.admission.MarketRisk(c.Request().Context(), req.Symbol))
}

// Alternatives suggests substitute symbols.
func (h *AdmissionHandler) Alternatives(c echo.Context) error {
	req := &models.AlternativesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	alts := h.admission.Alternatives(c.Request().Context(), req.Symbol, req.Count)
	return xhttp.ListResponse(c, alts, int64(len(alts)))
}

// PlaceOrder runs the full submit path through admission and the exchange.
func (h *AdmissionHandler) PlaceOrder(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trade, err := toTradeRequest(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	decision, ack, err := h.placement.Submit(c.Request().Context(), trade)
	if err != nil {
		var terr *usecase.ErrTierLimit
		if errors.As(err, &terr) {
			return xhttp.DataResponse(c, http.StatusUnprocessableEntity, terr.Violation)
		}
		var rerr *usecase.ErrRejected
		if errors.As(err, &rerr) {
			return xhttp.DataResponse(c, http.StatusConflict, rerr.Decision)
		}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return xhttp.BadRequestResponse(c, verr.Error())
		}
		h.logger.Error("place order error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.CreatedResponse(c, map[string]interface{}{
		"decision": decision,
		"order":    ack,
	})
}

func toTradeRequest(req *models.EvaluateRequest) (*models.TradeRequest, error) {
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	trade := &models.TradeRequest{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     models.Side(req.Side),
		Quantity: decimal.NewFromFloat(req.Quantity),
		Strategy: req.Strategy,
		Tier:     tier,
	}
	// Zero price means market order; the notional-based rules skip it.
	if req.Price > 0 {
		p := decimal.NewFromFloat(req.Price)
		trade.Price = &p
	}
	return trade, nil
}
