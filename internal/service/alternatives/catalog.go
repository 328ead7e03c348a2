package alternatives

import "TradeGate/internal/domain/models"

// Recommender suggests substitute symbols when a request is rejected. The
// catalog is read-only reference data, so the recommender is safe to call
// concurrently without synchronization.
type Recommender struct {
	catalog  map[string][]models.AlternativeSymbol
	fallback []models.AlternativeSymbol
}

// NewRecommender builds the curated catalog.
func NewRecommender() *Recommender {
	btc := models.AlternativeSymbol{Symbol: "BTCUSDT", DisplayName: "Bitcoin", Similarity: 0.6, Reason: "deepest liquidity", MarketCapHint: "mega", Volatility: "medium"}
	eth := models.AlternativeSymbol{Symbol: "ETHUSDT", DisplayName: "Ethereum", Similarity: 0.6, Reason: "second deepest book", MarketCapHint: "mega", Volatility: "medium"}

	return &Recommender{
		catalog: map[string][]models.AlternativeSymbol{
			"BTCUSDT": {
				{Symbol: "ETHUSDT", DisplayName: "Ethereum", Similarity: 0.85, Reason: "large cap, correlated with BTC", MarketCapHint: "mega", Volatility: "medium"},
				{Symbol: "LTCUSDT", DisplayName: "Litecoin", Similarity: 0.8, Reason: "BTC code lineage, similar cycles", MarketCapHint: "large", Volatility: "medium"},
				{Symbol: "BCHUSDT", DisplayName: "Bitcoin Cash", Similarity: 0.75, Reason: "BTC fork, tracks BTC moves", MarketCapHint: "large", Volatility: "high"},
			},
			"ETHUSDT": {
				{Symbol: "BTCUSDT", DisplayName: "Bitcoin", Similarity: 0.85, Reason: "large cap, correlated with ETH", MarketCapHint: "mega", Volatility: "medium"},
				{Symbol: "BNBUSDT", DisplayName: "BNB", Similarity: 0.7, Reason: "smart-contract platform", MarketCapHint: "large", Volatility: "medium"},
				{Symbol: "SOLUSDT", DisplayName: "Solana", Similarity: 0.7, Reason: "smart-contract platform", MarketCapHint: "large", Volatility: "high"},
			},
			"SOLUSDT": {
				{Symbol: "ETHUSDT", DisplayName: "Ethereum", Similarity: 0.75, Reason: "smart-contract platform", MarketCapHint: "mega", Volatility: "medium"},
				{Symbol: "ADAUSDT", DisplayName: "Cardano", Similarity: 0.7, Reason: "alt layer-1", MarketCapHint: "large", Volatility: "high"},
				{Symbol: "DOTUSDT", DisplayName: "Polkadot", Similarity: 0.65, Reason: "alt layer-1", MarketCapHint: "mid", Volatility: "high"},
			},
			"DOGEUSDT": {
				{Symbol: "XRPUSDT", DisplayName: "XRP", Similarity: 0.6, Reason: "retail-driven flows", MarketCapHint: "large", Volatility: "high"},
				{Symbol: "ADAUSDT", DisplayName: "Cardano", Similarity: 0.55, Reason: "retail-driven flows", MarketCapHint: "large", Volatility: "high"},
			},
		},
		fallback: []models.AlternativeSymbol{btc, eth},
	}
}

// Suggest returns up to count catalog entries for symbols other than the
// input. Unmapped symbols get the global defaults, minus the input itself.
func (r *Recommender) Suggest(symbol string, count int) []models.AlternativeSymbol {
	if count <= 0 {
		return nil
	}
	entries, ok := r.catalog[symbol]
	if !ok {
		entries = r.fallback
	}
	out := make([]models.AlternativeSymbol, 0, count)
	for _, e := range entries {
		if e.Symbol == symbol {
			continue
		}
		out = append(out, e)
		if len(out) == count {
			break
		}
	}
	return out
}
