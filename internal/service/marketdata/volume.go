package marketdata

import (
	"context"
	"sync"
	"time"

	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/cache"

	"github.com/shopspring/decimal"
)

// StaticVolumeTable is the clearly-labeled placeholder oracle used when no
// live feed is configured. Figures are rough 24h quote-volume orders of
// magnitude for the majors, not market data.
type StaticVolumeTable struct {
	volumes map[string]decimal.Decimal
}

// NewStaticVolumeTable builds the built-in fallback table.
func NewStaticVolumeTable() *StaticVolumeTable {
	return &StaticVolumeTable{volumes: map[string]decimal.Decimal{
		"BTCUSDT":  decimal.NewFromInt(15_000_000_000),
		"ETHUSDT":  decimal.NewFromInt(8_000_000_000),
		"BNBUSDT":  decimal.NewFromInt(1_200_000_000),
		"SOLUSDT":  decimal.NewFromInt(2_500_000_000),
		"XRPUSDT":  decimal.NewFromInt(1_800_000_000),
		"ADAUSDT":  decimal.NewFromInt(600_000_000),
		"DOGEUSDT": decimal.NewFromInt(900_000_000),
		"LTCUSDT":  decimal.NewFromInt(400_000_000),
		"BCHUSDT":  decimal.NewFromInt(300_000_000),
		"DOTUSDT":  decimal.NewFromInt(250_000_000),
	}}
}

func (t *StaticVolumeTable) EstimatedDailyVolume(_ context.Context, symbol string) (decimal.Decimal, bool) {
	v, ok := t.volumes[symbol]
	return v, ok
}

// LiveVolumeTable holds the most recent 24h quote volume per symbol, fed by
// the ticker stream. Reads outnumber writes heavily.
type LiveVolumeTable struct {
	mu      sync.RWMutex
	volumes map[string]decimal.Decimal
}

func NewLiveVolumeTable() *LiveVolumeTable {
	return &LiveVolumeTable{volumes: make(map[string]decimal.Decimal)}
}

// Update stores the latest observed daily volume for symbol.
func (t *LiveVolumeTable) Update(symbol string, volume decimal.Decimal) {
	if volume.Sign() <= 0 {
		return
	}
	t.mu.Lock()
	t.volumes[symbol] = volume
	t.mu.Unlock()
}

func (t *LiveVolumeTable) EstimatedDailyVolume(_ context.Context, symbol string) (decimal.Decimal, bool) {
	t.mu.RLock()
	v, ok := t.volumes[symbol]
	t.mu.RUnlock()
	return v, ok
}

// TickerSource fetches 24h ticker stats on demand, typically the exchange
// REST client.
type TickerSource interface {
	DailyQuoteVolume(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// CachedOracle asks a TickerSource and caches answers so a burst of
// evaluations on one symbol costs a single upstream call.
type CachedOracle struct {
	source TickerSource
	cache  cache.Service
	ttl    time.Duration
}

// NewCachedOracle wraps source with a cache layer.
func NewCachedOracle(source TickerSource, c cache.Service, ttl time.Duration) *CachedOracle {
	return &CachedOracle{source: source, cache: c, ttl: ttl}
}

func (o *CachedOracle) EstimatedDailyVolume(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	key := "volume:" + symbol
	var cached string
	if err := o.cache.Get(ctx, key, &cached); err == nil {
		if v, derr := decimal.NewFromString(cached); derr == nil {
			return v, true
		}
	}
	v, err := o.source.DailyQuoteVolume(ctx, symbol)
	if err != nil || v.Sign() <= 0 {
		return decimal.Zero, false
	}
	_ = o.cache.Set(ctx, key, v.String(), o.ttl)
	return v, true
}

// OracleChain tries each oracle in order and returns the first hit. The usual
// chain is live table, cached exchange lookup, static fallback.
type OracleChain []repository.VolumeOracle

func (c OracleChain) EstimatedDailyVolume(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	for _, o := range c {
		if v, ok := o.EstimatedDailyVolume(ctx, symbol); ok {
			return v, true
		}
	}
	return decimal.Zero, false
}
