package policy

import (
	"TradeGate/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Limits are the per-tier policy caps.
type Limits struct {
	MaxConcurrentUsers int
	MaxTradeValue      decimal.Decimal
	MaxDailyTrades     int
}

// Defaults returns the built-in tier table.
func Defaults() map[models.Tier]Limits {
	return map[models.Tier]Limits{
		models.TierFree:    {MaxConcurrentUsers: 2, MaxTradeValue: decimal.NewFromInt(1_000), MaxDailyTrades: 5},
		models.TierBasic:   {MaxConcurrentUsers: 3, MaxTradeValue: decimal.NewFromInt(10_000), MaxDailyTrades: 20},
		models.TierPremium: {MaxConcurrentUsers: 5, MaxTradeValue: decimal.NewFromInt(100_000), MaxDailyTrades: 100},
		models.TierVIP:     {MaxConcurrentUsers: 10, MaxTradeValue: decimal.NewFromInt(1_000_000), MaxDailyTrades: 1_000},
	}
}

// Engine is a pure lookup over the tier table. No I/O, no mutable state.
type Engine struct {
	limits map[models.Tier]Limits
}

// NewEngine builds an engine from the defaults, with optional per-tier
// overrides from configuration.
func NewEngine(overrides map[models.Tier]Limits) *Engine {
	limits := Defaults()
	for tier, l := range overrides {
		base := limits[tier]
		if l.MaxConcurrentUsers > 0 {
			base.MaxConcurrentUsers = l.MaxConcurrentUsers
		}
		if l.MaxTradeValue.Sign() > 0 {
			base.MaxTradeValue = l.MaxTradeValue
		}
		if l.MaxDailyTrades > 0 {
			base.MaxDailyTrades = l.MaxDailyTrades
		}
		limits[tier] = base
	}
	return &Engine{limits: limits}
}

// MaxConcurrentUsers returns the distinct-user cap for a tier. Unknown tiers
// fall back to the free cap, the most restrictive one.
func (e *Engine) MaxConcurrentUsers(tier models.Tier) int {
	if l, ok := e.limits[tier]; ok {
		return l.MaxConcurrentUsers
	}
	return e.limits[models.TierFree].MaxConcurrentUsers
}

// Limits returns the full cap set for a tier.
func (e *Engine) Limits(tier models.Tier) (Limits, bool) {
	l, ok := e.limits[tier]
	return l, ok
}
