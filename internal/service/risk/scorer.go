package risk

import (
	"context"
	"fmt"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/internal/service/policy"
	"TradeGate/internal/service/registry"

	"github.com/shopspring/decimal"
)

// Config holds the scoring thresholds. All values are process-wide policy
// constants loaded at startup.
type Config struct {
	WhaleThreshold      decimal.Decimal // notional above this flags whale_alert
	ImpactWarnRatio     float64         // notional/dailyVolume above this flags market_impact high
	ImpactCriticalRatio float64         // ... and above this, critical
	ClusterSimilarity   float64         // matching/total strategy ratio that flags cluster_risk
}

// DefaultConfig mirrors the engine's published policy defaults.
func DefaultConfig() Config {
	return Config{
		WhaleThreshold:      decimal.NewFromInt(50_000),
		ImpactWarnRatio:     0.001,
		ImpactCriticalRatio: 0.01,
		ClusterSimilarity:   0.8,
	}
}

// Scorer composes the whale, market-impact and strategy-clustering heuristics
// into a single short-circuiting verdict. Every severity is a pure function of
// the inputs that triggered it.
type Scorer struct {
	cfg        Config
	policy     *policy.Engine
	reg        *registry.Registry
	timing     *registry.Analyzer
	volumes    repository.VolumeOracle
	similarity repository.SimilarityScorer
}

// NewScorer wires the rule chain. The volume oracle is an explicit capability;
// pass marketdata.NewStaticVolumeTable() when no live feed is configured.
func NewScorer(
	cfg Config,
	pol *policy.Engine,
	reg *registry.Registry,
	timing *registry.Analyzer,
	volumes repository.VolumeOracle,
	similarity repository.SimilarityScorer,
) *Scorer {
	return &Scorer{
		cfg:        cfg,
		policy:     pol,
		reg:        reg,
		timing:     timing,
		volumes:    volumes,
		similarity: similarity,
	}
}

// Evaluate runs the admission rules in strict order and returns the first
// conflict, or nil when the request may proceed. All symbol-state rules read
// the single snapshot taken here, so a registration landing mid-evaluation
// can never make presence, counts and timing hits disagree with each other.
func (s *Scorer) Evaluate(ctx context.Context, req *models.TradeRequest) *models.TradeConflict {
	active := s.reg.Snapshot(req.Symbol)
	if c := s.sameSymbol(req, active); c != nil {
		return c
	}
	if c := s.timingCollision(req, active); c != nil {
		return c
	}
	if c := s.whaleAlert(req); c != nil {
		return c
	}
	if c := s.marketImpact(ctx, req); c != nil {
		return c
	}
	return s.clusterRisk(req, active)
}

// sameSymbol blocks a new distinct user once the tier's concurrency cap is
// reached. Users already present in the active set are never rejected here.
func (s *Scorer) sameSymbol(req *models.TradeRequest, active []models.TradeRequest) *models.TradeConflict {
	users := distinctUsers(active)
	for _, u := range users {
		if u == req.UserID {
			return nil
		}
	}
	cap := s.policy.MaxConcurrentUsers(req.Tier)
	if len(users) < cap {
		return nil
	}
	return &models.TradeConflict{
		Type:          models.ConflictSameSymbol,
		AffectedUsers: users,
		Symbol:        req.Symbol,
		Message:       fmt.Sprintf("%d traders already active on %s (tier %s allows %d)", len(users), req.Symbol, req.Tier, cap),
		Severity:      models.SeverityHigh,
		Action:        models.ActionAlternativeSymbol,
	}
}

func (s *Scorer) timingCollision(req *models.TradeRequest, active []models.TradeRequest) *models.TradeConflict {
	hits, collided := s.timing.CollisionIn(active, req.SubmittedAt)
	if !collided {
		return nil
	}
	users := make([]string, 0, len(hits)+1)
	seen := map[string]struct{}{req.UserID: {}}
	users = append(users, req.UserID)
	for _, h := range hits {
		if _, ok := seen[h.UserID]; ok {
			continue
		}
		seen[h.UserID] = struct{}{}
		users = append(users, h.UserID)
	}
	return &models.TradeConflict{
		Type:          models.ConflictTimingCollision,
		AffectedUsers: users,
		Symbol:        req.Symbol,
		Message:       fmt.Sprintf("%d near-simultaneous orders on %s within %s", len(hits)+1, req.Symbol, s.timing.Window()),
		Severity:      models.SeverityMedium,
		Action:        models.ActionDelay,
	}
}

func (s *Scorer) whaleAlert(req *models.TradeRequest) *models.TradeConflict {
	notional := req.Notional()
	if notional.LessThanOrEqual(s.cfg.WhaleThreshold) {
		return nil
	}
	return &models.TradeConflict{
		Type:          models.ConflictWhaleAlert,
		AffectedUsers: []string{req.UserID},
		Symbol:        req.Symbol,
		Message:       fmt.Sprintf("notional %s exceeds whale threshold %s", notional, s.cfg.WhaleThreshold),
		Severity:      models.SeverityHigh,
		Action:        models.ActionReduceSize,
	}
}

func (s *Scorer) marketImpact(ctx context.Context, req *models.TradeRequest) *models.TradeConflict {
	notional := req.Notional()
	if notional.Sign() <= 0 {
		return nil
	}
	volume, ok := s.volumes.EstimatedDailyVolume(ctx, req.Symbol)
	if !ok || volume.Sign() <= 0 {
		return nil
	}
	ratio := notional.Div(volume).InexactFloat64()
	if ratio <= s.cfg.ImpactWarnRatio {
		return nil
	}
	severity := models.SeverityHigh
	if ratio > s.cfg.ImpactCriticalRatio {
		severity = models.SeverityCritical
	}
	return &models.TradeConflict{
		Type:          models.ConflictMarketImpact,
		AffectedUsers: []string{req.UserID},
		Symbol:        req.Symbol,
		Message:       fmt.Sprintf("order is %.3f%% of estimated daily volume on %s", ratio*100, req.Symbol),
		Severity:      severity,
		Action:        models.ActionReduceSize,
	}
}

// clusterRisk flags a strategy tag that matches most other active strategies
// on the symbol: many copies of one automated strategy crowding a pair.
func (s *Scorer) clusterRisk(req *models.TradeRequest, active []models.TradeRequest) *models.TradeConflict {
	if req.Strategy == "" {
		return nil
	}
	var matching, total int
	users := []string{req.UserID}
	for _, o := range active {
		if o.UserID == req.UserID || o.Strategy == "" {
			continue
		}
		total++
		if s.similarity.Similarity(req.Strategy, o.Strategy) >= s.cfg.ClusterSimilarity {
			matching++
			users = append(users, o.UserID)
		}
	}
	if total == 0 {
		return nil
	}
	if ratio := float64(matching) / float64(total); ratio < s.cfg.ClusterSimilarity {
		return nil
	}
	return &models.TradeConflict{
		Type:          models.ConflictClusterRisk,
		AffectedUsers: users,
		Symbol:        req.Symbol,
		Message:       fmt.Sprintf("strategy %q matches %d of %d active strategies on %s", req.Strategy, matching, total, req.Symbol),
		Severity:      models.SeverityMedium,
		Action:        models.ActionAlternativeSymbol,
	}
}

// CheckTierLimits is the standalone pre-check against the tier's single-trade
// value ceiling, independent of symbol state. Callers invoke it before
// Evaluate. The returned violation carries the ceiling that was exceeded.
func (s *Scorer) CheckTierLimits(tier models.Tier, notional decimal.Decimal) *models.TierViolation {
	limits, ok := s.policy.Limits(tier)
	if !ok {
		limits, _ = s.policy.Limits(models.TierFree)
	}
	if notional.LessThanOrEqual(limits.MaxTradeValue) {
		return nil
	}
	return &models.TierViolation{
		Tier:     tier,
		Notional: notional,
		Limit:    limits.MaxTradeValue,
		Message:  fmt.Sprintf("notional %s exceeds tier %s ceiling %s", notional, tier, limits.MaxTradeValue),
	}
}

// AssessMarketRisk is advisory output for dashboards. It aggregates the
// symbol's distinct-user count and total in-flight notional into a graded
// level; it never blocks a request.
func (s *Scorer) AssessMarketRisk(symbol string) models.MarketRisk {
	st := s.reg.StatusFor(symbol)
	level, recommendation := gradeMarketRisk(st.DistinctUsers, st.TotalNotional)
	return models.MarketRisk{
		Symbol:         symbol,
		Level:          level,
		DistinctUsers:  st.DistinctUsers,
		TotalNotional:  st.TotalNotional,
		Recommendation: recommendation,
	}
}

func gradeMarketRisk(users int, notional decimal.Decimal) (models.RiskLevel, string) {
	switch {
	case users >= 8 || notional.GreaterThan(decimal.NewFromInt(1_000_000)):
		return models.RiskExtreme, "avoid new positions until activity cools"
	case users >= 5 || notional.GreaterThan(decimal.NewFromInt(250_000)):
		return models.RiskHigh, "reduce position sizes and stagger entries"
	case users >= 3 || notional.GreaterThan(decimal.NewFromInt(50_000)):
		return models.RiskMedium, "expect elevated slippage"
	default:
		return models.RiskLow, "normal trading conditions"
	}
}

func distinctUsers(orders []models.TradeRequest) []string {
	seen := map[string]struct{}{}
	var users []string
	for _, o := range orders {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		users = append(users, o.UserID)
	}
	return users
}
