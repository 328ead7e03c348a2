package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tier is a user's subscription level. It gates how many distinct users may
// trade a symbol concurrently and how large a single trade may be.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// ParseTier validates a tier string.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierBasic, TierPremium, TierVIP:
		return Tier(s), nil
	}
	return "", &ValidationError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", s)}
}

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeRequest is an immutable trade submission under admission control.
// Price is nil for market orders; Notional is then zero.
type TradeRequest struct {
	ID          uuid.UUID
	UserID      string
	Symbol      string
	Side        Side
	Quantity    decimal.Decimal
	Price       *decimal.Decimal
	Strategy    string
	Tier        Tier
	SubmittedAt time.Time
}

// Notional returns Quantity x Price in quote currency, or zero for market
// orders where no price is known at submission time.
func (r *TradeRequest) Notional() decimal.Decimal {
	if r.Price == nil {
		return decimal.Zero
	}
	return r.Quantity.Mul(*r.Price)
}

// Validate fails fast on malformed input before it reaches the registry.
func (r *TradeRequest) Validate() error {
	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if r.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return &ValidationError{Field: "side", Reason: fmt.Sprintf("unknown side %q", r.Side)}
	}
	if r.Quantity.Sign() < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if r.Price != nil && r.Price.Sign() <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than zero when set"}
	}
	if _, err := ParseTier(string(r.Tier)); err != nil {
		return err
	}
	return nil
}

// ValidationError marks malformed input rejected at the engine boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SymbolStatus is the read-only per-symbol view served to dashboards.
type SymbolStatus struct {
	Symbol        string          `json:"symbol"`
	DistinctUsers int             `json:"distinct_users"`
	ActiveOrders  int             `json:"active_orders"`
	TotalNotional decimal.Decimal `json:"total_notional"`
	OldestOrder   time.Time       `json:"oldest_order"`
}

// OrderAck is the exchange collaborator's acknowledgement of a placed order.
type OrderAck struct {
	OrderID string          `json:"orderId"`
	Symbol  string          `json:"symbol"`
	Status  string          `json:"status"`
	Filled  decimal.Decimal `json:"executedQty"`
}

// TickerStats is the slice of the exchange 24h ticker the engine cares about.
type TickerStats struct {
	Symbol      string          `json:"symbol"`
	QuoteVolume decimal.Decimal `json:"quoteVolume"`
	LastPrice   decimal.Decimal `json:"lastPrice"`
}
