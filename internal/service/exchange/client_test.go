package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/service/ratelimit"
	"TradeGate/pkg/logger"
)

type recordingMetrics struct {
	placed int
	errs   int
}

func (m *recordingMetrics) RecordDecision(string, string)    {}
func (m *recordingMetrics) RecordError(string)               { m.errs++ }
func (m *recordingMetrics) RecordEvaluateLatency(float64)    {}
func (m *recordingMetrics) RecordLimiterWait(float64)        {}
func (m *recordingMetrics) RecordReap(int)                   {}
func (m *recordingMetrics) SetActiveOrders(string, int)      {}
func (m *recordingMetrics) RecordOrderPlaced(string, string) { m.placed++ }

func testClient(t *testing.T, baseURL string, m *recordingMetrics) *Client {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	limiter, err := ratelimit.New(100, time.Minute)
	require.NoError(t, err)
	return NewClient(baseURL, "test-key", 5*time.Second, limiter, m, log)
}

func TestPlaceOrderSendsLimitParams(t *testing.T) {
	var gotQuery map[string][]string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("X-MBX-APIKEY")
		_ = json.NewEncoder(w).Encode(models.OrderAck{OrderID: "42", Symbol: "BTCUSDT", Status: "NEW"})
	}))
	defer srv.Close()

	m := &recordingMetrics{}
	c := testClient(t, srv.URL, m)

	price := decimal.NewFromInt(100)
	ack, err := c.PlaceOrder(context.Background(), &models.TradeRequest{
		UserID:   "alice",
		Symbol:   "BTCUSDT",
		Side:     models.SideBuy,
		Quantity: decimal.NewFromInt(2),
		Price:    &price,
		Tier:     models.TierFree,
	})
	require.NoError(t, err)
	require.Equal(t, "42", ack.OrderID)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, []string{"LIMIT"}, gotQuery["type"])
	require.Equal(t, []string{"BUY"}, gotQuery["side"])
	require.Equal(t, []string{"100"}, gotQuery["price"])
	require.Equal(t, 1, m.placed)
}

func TestPlaceOrderMarketWhenPriceNil(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(models.OrderAck{OrderID: "43", Symbol: "BTCUSDT", Status: "FILLED"})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, &recordingMetrics{})
	_, err := c.PlaceOrder(context.Background(), &models.TradeRequest{
		UserID:   "alice",
		Symbol:   "BTCUSDT",
		Side:     models.SideSell,
		Quantity: decimal.NewFromInt(1),
		Tier:     models.TierFree,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"MARKET"}, gotQuery["type"])
	require.Empty(t, gotQuery["price"])
}

func TestDailyQuoteVolumeParsesTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","quoteVolume":"15000000000","lastPrice":"65000"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, &recordingMetrics{})
	v, err := c.DailyQuoteVolume(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.True(t, v.Equal(decimal.NewFromInt(15_000_000_000)))
}

func TestErrorsAreCountedAndWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1013,"msg":"Invalid quantity"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	m := &recordingMetrics{}
	c := testClient(t, srv.URL, m)

	price := decimal.NewFromInt(100)
	_, err := c.PlaceOrder(context.Background(), &models.TradeRequest{
		UserID:   "alice",
		Symbol:   "BTCUSDT",
		Side:     models.SideBuy,
		Quantity: decimal.NewFromInt(0),
		Price:    &price,
		Tier:     models.TierFree,
	})
	require.Error(t, err)
	require.Equal(t, 1, m.errs)
}
