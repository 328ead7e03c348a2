package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/internal/service/ratelimit"
	pkghttp "TradeGate/pkg/http"
	"TradeGate/pkg/logger"
)

// Client talks to the exchange REST API. Every outbound call first waits
// on the shared rate limiter so the process never exceeds the exchange's
// request budget, no matter how many goroutines hit it at once.
type Client struct {
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	metrics repository.Metrics
	log     *logger.Logger
	baseURL string
	apiKey  string
	clk     func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithNowFunc overrides the wall clock used to measure limiter waits.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) { c.clk = now }
}

// NewClient creates an exchange client.
func NewClient(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter, metrics repository.Metrics, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		limiter: limiter,
		metrics: metrics,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		clk:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaceOrder submits an admitted order to the exchange.
func (c *Client) PlaceOrder(ctx context.Context, req *models.TradeRequest) (*models.OrderAck, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := map[string][]string{
		"symbol":   {req.Symbol},
		"side":     {strings.ToUpper(string(req.Side))},
		"quantity": {req.Quantity.String()},
	}
	if req.Price != nil {
		params["type"] = []string{"LIMIT"}
		params["price"] = []string{req.Price.String()}
		params["timeInForce"] = []string{"GTC"}
	} else {
		params["type"] = []string{"MARKET"}
	}
	params["newClientOrderId"] = []string{req.ID.String()}

	var ack models.OrderAck
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      http.MethodPost,
		URL:         c.baseURL + "/api/v3/order",
		Headers:     c.headers(),
		QueryParams: params,
	}, &ack)
	if err != nil {
		c.metrics.RecordError("exchange_place_order")
		return nil, fmt.Errorf("place order %s: %w", req.Symbol, err)
	}

	c.metrics.RecordOrderPlaced(req.Symbol, string(req.Side))
	c.log.Info("order placed",
		logger.String("symbol", req.Symbol),
		logger.String("order_id", ack.OrderID),
		logger.String("user_id", req.UserID),
	)
	return &ack, nil
}

// DailyQuoteVolume fetches the 24h rolling quote volume for a symbol.
func (c *Client) DailyQuoteVolume(ctx context.Context, symbol string) (decimal.Decimal, error) {
	stats, err := c.TickerStats(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return stats.QuoteVolume, nil
}

// TickerStats fetches the exchange 24h ticker for a symbol.
func (c *Client) TickerStats(ctx context.Context, symbol string) (*models.TickerStats, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var stats models.TickerStats
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      http.MethodGet,
		URL:         c.baseURL + "/api/v3/ticker/24hr",
		Headers:     c.headers(),
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &stats)
	if err != nil {
		c.metrics.RecordError("exchange_ticker")
		return nil, fmt.Errorf("ticker %s: %w", symbol, err)
	}
	return &stats, nil
}

func (c *Client) wait(ctx context.Context) error {
	start := c.clk()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if waited := c.clk().Sub(start); waited > 0 {
		c.metrics.RecordLimiterWait(waited.Seconds())
	}
	return nil
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.apiKey != "" {
		h["X-MBX-APIKEY"] = c.apiKey
	}
	return h
}
