package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConflictType identifies which admission rule fired.
type ConflictType string

const (
	ConflictSameSymbol      ConflictType = "same_symbol"
	ConflictTimingCollision ConflictType = "timing_collision"
	ConflictWhaleAlert      ConflictType = "whale_alert"
	ConflictMarketImpact    ConflictType = "market_impact"
	ConflictClusterRisk     ConflictType = "cluster_risk"
)

// Severity grades a conflict.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Action is the recommended caller response to a conflict.
type Action string

const (
	ActionDelay             Action = "delay"
	ActionReduceSize        Action = "reduce_size"
	ActionAlternativeSymbol Action = "alternative_symbol"
	ActionCancel            Action = "cancel"
)

// TradeConflict is produced fresh per evaluation and never stored.
type TradeConflict struct {
	Type          ConflictType `json:"type"`
	AffectedUsers []string     `json:"affected_users,omitempty"`
	Symbol        string       `json:"symbol"`
	Message       string       `json:"message"`
	Severity      Severity     `json:"severity"`
	Action        Action       `json:"recommended_action"`
}

// Decision is the admission verdict for one request.
type Decision struct {
	Admitted     bool                `json:"admitted"`
	Conflict     *TradeConflict      `json:"conflict,omitempty"`
	Alternatives []AlternativeSymbol `json:"alternatives,omitempty"`
}

// AlternativeSymbol is a catalog entry suggested when a request is rejected.
type AlternativeSymbol struct {
	Symbol        string  `json:"symbol"`
	DisplayName   string  `json:"display_name"`
	Similarity    float64 `json:"similarity"`
	Reason        string  `json:"reason"`
	MarketCapHint string  `json:"market_cap_hint"`
	Volatility    string  `json:"volatility_hint"`
}

// RiskLevel grades the advisory market-risk assessment.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// MarketRisk is the non-gating per-symbol assessment for dashboards.
type MarketRisk struct {
	Symbol         string          `json:"symbol"`
	Level          RiskLevel       `json:"risk_level"`
	DistinctUsers  int             `json:"distinct_users"`
	TotalNotional  decimal.Decimal `json:"total_notional"`
	Recommendation string          `json:"recommendation"`
}

// TierViolation reports a request rejected by the standalone tier value check.
type TierViolation struct {
	Tier     Tier            `json:"tier"`
	Notional decimal.Decimal `json:"notional"`
	Limit    decimal.Decimal `json:"limit"`
	Message  string          `json:"message"`
}

// DecisionEvent is the audit record published to the external trade-history
// store for every admission outcome.
type DecisionEvent struct {
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Tier      Tier      `json:"tier"`
	Admitted  bool      `json:"admitted"`
	Conflict  string    `json:"conflict,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Notional  string    `json:"notional"`
	At        time.Time `json:"at"`
}
