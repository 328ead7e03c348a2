package models

// Requests for admission HTTP endpoints. Defined in domain for consistency and reuse.

type EvaluateRequest struct {
	UserID   string  `json:"user_id" validate:"required"`
	Symbol   string  `json:"symbol" validate:"required"`
	Side     string  `json:"side" default:"buy" validate:"oneof=buy sell"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Strategy string  `json:"strategy"`
	Tier     string  `json:"tier" default:"free" validate:"oneof=free basic premium vip"`
}

type CompleteRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
}

type MarketRiskRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type AlternativesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Count  int    `query:"count" json:"count" default:"3" validate:"gte=1,lte=10"`
}

type StatusRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
}
