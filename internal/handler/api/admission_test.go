package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"TradeGate/internal/domain/models"
	internalrepo "TradeGate/internal/repository"
	"TradeGate/internal/service/alternatives"
	"TradeGate/internal/service/policy"
	"TradeGate/internal/service/registry"
	"TradeGate/internal/service/risk"
	"TradeGate/internal/usecase"
	"TradeGate/pkg/clock"
	"TradeGate/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, string)    {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordEvaluateLatency(float64)    {}
func (nopMetrics) RecordLimiterWait(float64)        {}
func (nopMetrics) RecordReap(int)                   {}
func (nopMetrics) SetActiveOrders(string, int)      {}
func (nopMetrics) RecordOrderPlaced(string, string) {}

type fixedVolumes map[string]int64

func (f fixedVolumes) EstimatedDailyVolume(_ context.Context, symbol string) (decimal.Decimal, bool) {
	v, ok := f[symbol]
	return decimal.NewFromInt(v), ok
}

type stubPlacer struct{}

func (stubPlacer) PlaceOrder(_ context.Context, req *models.TradeRequest) (*models.OrderAck, error) {
	return &models.OrderAck{OrderID: "99", Symbol: req.Symbol, Status: "NEW"}, nil
}

func newTestHandler(t *testing.T) (*AdmissionHandler, *usecase.AdmissionEngine) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	reg := registry.New()
	analyzer := registry.NewAnalyzer(reg, 3*time.Second, 3)
	scorer := risk.NewScorer(risk.DefaultConfig(), policy.NewEngine(nil), reg, analyzer,
		fixedVolumes{"BTCUSDT": 15_000_000_000}, risk.TagSimilarity{})
	eng := usecase.NewAdmissionEngine(reg, scorer, alternatives.NewRecommender(),
		internalrepo.NopDecisionPublisher{}, nopMetrics{}, log, clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	placement := usecase.NewPlacementWorkflow(eng, stubPlacer{}, log)
	return NewAdmissionHandler(log, eng, placement), eng
}

func do(t *testing.T, h *AdmissionHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestEvaluateEndpointAdmits(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/admission/evaluate",
		`{"user_id":"alice","symbol":"BTCUSDT","quantity":1,"price":100,"tier":"free"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	env := envelope(t, rec)
	require.EqualValues(t, http.StatusOK, env["status"])
	data := env["data"].(map[string]interface{})
	require.Equal(t, true, data["admitted"])
}

func TestEvaluateEndpointRejectsMissingUser(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/admission/evaluate",
		`{"symbol":"BTCUSDT","quantity":1,"price":100}`)
	env := envelope(t, rec)
	require.EqualValues(t, http.StatusBadRequest, env["status"])
}

func TestRegisterThenStatusAndComplete(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/admission/register",
		`{"user_id":"alice","symbol":"BTCUSDT","quantity":1,"price":100,"tier":"free"}`)
	env := envelope(t, rec)
	require.EqualValues(t, http.StatusCreated, env["status"])

	rec = do(t, h, http.MethodGet, "/api/admission/status?symbol=BTCUSDT", "")
	env = envelope(t, rec)
	data := env["data"].(map[string]interface{})
	require.EqualValues(t, 1, data["active_orders"])

	rec = do(t, h, http.MethodPost, "/api/admission/complete",
		`{"user_id":"alice","symbol":"BTCUSDT"}`)
	env = envelope(t, rec)
	data = env["data"].(map[string]interface{})
	require.EqualValues(t, 1, data["removed"])
}

func TestAlternativesEndpointExcludesSymbol(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/alternatives?symbol=BTCUSDT&count=3", "")
	env := envelope(t, rec)
	data := env["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	require.NotEmpty(t, rows)
	for _, row := range rows {
		require.NotEqual(t, "BTCUSDT", row.(map[string]interface{})["symbol"])
	}
}

func TestPlaceOrderEndpointRejectsOverTierValue(t *testing.T) {
	h, _ := newTestHandler(t)

	// Free tier caps a single trade at $1,000.
	rec := do(t, h, http.MethodPost, "/api/orders",
		`{"user_id":"alice","symbol":"BTCUSDT","quantity":1,"price":5000,"tier":"free"}`)
	env := envelope(t, rec)
	require.EqualValues(t, http.StatusUnprocessableEntity, env["status"])
}

func TestPlaceOrderEndpointAdmitsAndRegisters(t *testing.T) {
	h, eng := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/orders",
		`{"user_id":"alice","symbol":"BTCUSDT","quantity":1,"price":100,"tier":"free"}`)
	env := envelope(t, rec)
	require.EqualValues(t, http.StatusCreated, env["status"])

	st := eng.StatusFor(context.Background(), "BTCUSDT")
	require.Equal(t, 1, st.ActiveOrders)
}
