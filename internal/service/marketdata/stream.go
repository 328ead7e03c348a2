package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	"TradeGate/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Stream is a MarketStream over the exchange's 24h mini-ticker WebSocket
// feed. It keeps the live volume table current so market-impact checks run
// against real figures instead of the static fallback.
type Stream struct {
	wsURL        string
	symbols      []string
	pingInterval time.Duration
	log          *logger.Logger

	conn *websocket.Conn
}

// NewStream creates a ticker stream for the given symbols.
func NewStream(wsURL string, symbols []string, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Stream{
		wsURL:        wsURL,
		symbols:      symbols,
		pingInterval: pingInterval,
		log:          log,
	}
}

// Connect dials the exchange WebSocket endpoint.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("marketdata connect: %w", err)
	}
	s.conn = conn
	s.log.Info("marketdata: connected", logger.String("url", s.wsURL))
	return nil
}

// Subscribe requests mini-ticker updates for the configured symbols.
func (s *Stream) Subscribe(_ context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("marketdata not connected")
	}
	params := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		params = append(params, strings.ToLower(sym)+"@miniTicker")
	}
	msg := map[string]any{"method": "SUBSCRIBE", "params": params, "id": 1}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.log.Info("marketdata: subscribed", logger.Strings("symbols", s.symbols))
	return nil
}

type miniTicker struct {
	Symbol      string `json:"s"`
	ClosePrice  string `json:"c"`
	QuoteVolume string `json:"q"` // 24h quote asset volume
}

// Read streams ticker stats and errors until ctx is cancelled or the
// connection drops.
func (s *Stream) Read(ctx context.Context) (<-chan *models.TickerStats, <-chan error) {
	stats := make(chan *models.TickerStats, 256)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(stats)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("marketdata conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("marketdata read: %w", err)
					return
				}
				var t miniTicker
				if err := json.Unmarshal(b, &t); err != nil || t.Symbol == "" {
					// subscription acks and other non-ticker frames
					continue
				}
				volume, err := decimal.NewFromString(t.QuoteVolume)
				if err != nil {
					continue
				}
				price, _ := decimal.NewFromString(t.ClosePrice)
				st := &models.TickerStats{Symbol: t.Symbol, QuoteVolume: volume, LastPrice: price}
				select {
				case stats <- st:
				default:
					// drop on backpressure, next tick supersedes anyway
				}
			}
		}
	}()

	return stats, errs
}

// Close tears down the connection.
func (s *Stream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Collector pumps a MarketStream into the live volume table, reconnecting
// with a fixed delay until stopped.
type Collector struct {
	stream         drepo.MarketStream
	table          *LiveVolumeTable
	reconnectDelay time.Duration
	log            *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCollector creates a collector feeding table from stream.
func NewCollector(stream drepo.MarketStream, table *LiveVolumeTable, reconnectDelay time.Duration, log *logger.Logger) *Collector {
	return &Collector{stream: stream, table: table, reconnectDelay: reconnectDelay, log: log}
}

// Start runs the collect loop in the background until Stop.
func (c *Collector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		for {
			if err := c.runOnce(ctx); err != nil {
				c.log.Warn("marketdata stream error", logger.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.reconnectDelay):
			}
		}
	}()
}

func (c *Collector) runOnce(ctx context.Context) error {
	// Scoped to one connection so the stream's ping goroutine does not
	// outlive a reconnect.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	defer c.stream.Close()
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	stats, errs := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case st, ok := <-stats:
			if !ok {
				return nil
			}
			c.table.Update(st.Symbol, st.QuoteVolume)
		}
	}
}

// Stop cancels the collect loop and waits for it to exit.
func (c *Collector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}
