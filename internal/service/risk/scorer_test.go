package risk

import (
	"context"
	"testing"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/service/policy"
	"TradeGate/internal/service/registry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedVolumes map[string]int64

func (f fixedVolumes) EstimatedDailyVolume(_ context.Context, symbol string) (decimal.Decimal, bool) {
	v, ok := f[symbol]
	return decimal.NewFromInt(v), ok
}

func newScorer(t *testing.T, reg *registry.Registry, volumes fixedVolumes) *Scorer {
	t.Helper()
	analyzer := registry.NewAnalyzer(reg, 3*time.Second, 3)
	return NewScorer(DefaultConfig(), policy.NewEngine(nil), reg, analyzer, volumes, TagSimilarity{})
}

func request(user, symbol string, qty, price int64, tier models.Tier, at time.Time) *models.TradeRequest {
	p := decimal.NewFromInt(price)
	return &models.TradeRequest{
		UserID:      user,
		Symbol:      symbol,
		Side:        models.SideBuy,
		Quantity:    decimal.NewFromInt(qty),
		Price:       &p,
		Tier:        tier,
		SubmittedAt: at,
	}
}

func TestSameSymbolCapBlocksNewUser(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	reg.Register(*request("alice", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))
	reg.Register(*request("bob", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))

	c := s.Evaluate(context.Background(), request("carol", "BTCUSDT", 1, 100, models.TierFree, base))
	require.NotNil(t, c)
	require.Equal(t, models.ConflictSameSymbol, c.Type)
	require.Equal(t, models.SeverityHigh, c.Severity)
	require.Equal(t, models.ActionAlternativeSymbol, c.Action)
	require.ElementsMatch(t, []string{"alice", "bob"}, c.AffectedUsers)
}

func TestSameSymbolNeverRejectsExistingUser(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	reg.Register(*request("alice", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))
	reg.Register(*request("bob", "BTCUSDT", 1, 100, models.TierFree, base.Add(-2*time.Minute)))

	// Cap is reached, but alice is already in the set.
	c := s.Evaluate(context.Background(), request("alice", "BTCUSDT", 1, 100, models.TierFree, base))
	require.Nil(t, c)
}

func TestEvaluateNeverRejectsUserBeingRegistered(t *testing.T) {
	// Evaluate must read presence and the distinct-user count from one
	// snapshot. If a concurrent Register of the same user could land between
	// the two reads, the user would be counted toward the cap while their
	// own presence check had already answered "absent".
	for i := 0; i < 2000; i++ {
		reg := registry.New()
		s := newScorer(t, reg, fixedVolumes{})
		reg.Register(*request("bob", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))

		registered := make(chan struct{})
		go func() {
			reg.Register(*request("alice", "BTCUSDT", 1, 100, models.TierFree, base))
			close(registered)
		}()
		c := s.Evaluate(context.Background(), request("alice", "BTCUSDT", 1, 100, models.TierFree, base.Add(-30*time.Second)))
		<-registered

		// Either view is admissible: alice absent (1 of 2 slots used) or
		// alice present (existing users pass). A rejection means the rule
		// mixed the two.
		require.Nil(t, c)
	}
}

func TestHigherTierGetsHigherCap(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	reg.Register(*request("alice", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))
	reg.Register(*request("bob", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))

	c := s.Evaluate(context.Background(), request("carol", "BTCUSDT", 1, 100, models.TierVIP, base))
	require.Nil(t, c)
}

func TestTimingCollisionOnThirdSubmission(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	reg.Register(*request("alice", "SOLUSDT", 1, 100, models.TierVIP, base))
	reg.Register(*request("bob", "SOLUSDT", 1, 100, models.TierVIP, base.Add(500*time.Millisecond)))

	c := s.Evaluate(context.Background(), request("carol", "SOLUSDT", 1, 100, models.TierVIP, base.Add(time.Second)))
	require.NotNil(t, c)
	require.Equal(t, models.ConflictTimingCollision, c.Type)
	require.Equal(t, models.SeverityMedium, c.Severity)
	require.Equal(t, models.ActionDelay, c.Action)
	require.Len(t, c.AffectedUsers, 3)
}

func TestWhaleAlert(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{"ETHUSDT": 8_000_000_000})

	// quantity 2 x price 30,000 = $60,000 notional, no prior activity.
	c := s.Evaluate(context.Background(), request("dave", "ETHUSDT", 2, 30_000, models.TierVIP, base))
	require.NotNil(t, c)
	require.Equal(t, models.ConflictWhaleAlert, c.Type)
	require.Equal(t, models.SeverityHigh, c.Severity)
	require.Equal(t, models.ActionReduceSize, c.Action)
}

func TestWhaleSkippedForMarketOrders(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	req := request("dave", "ETHUSDT", 1_000_000, 1, models.TierVIP, base)
	req.Price = nil // market order, notional unknown at submission
	c := s.Evaluate(context.Background(), req)
	require.Nil(t, c)
}

func TestMarketImpactHighAndCritical(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{"LOWCAPUSDT": 10_000_000})

	// $20k notional on $10M daily volume: 0.2% of volume, above warn, below critical.
	c := s.Evaluate(context.Background(), request("erin", "LOWCAPUSDT", 2, 10_000, models.TierVIP, base))
	require.NotNil(t, c)
	require.Equal(t, models.ConflictMarketImpact, c.Type)
	require.Equal(t, models.SeverityHigh, c.Severity)

	// A whale-threshold-sized order needs a bigger book to isolate impact; use
	// $40k on $2M volume: 2%, critical.
	s2 := newScorer(t, registry.New(), fixedVolumes{"LOWCAPUSDT": 2_000_000})
	c2 := s2.Evaluate(context.Background(), request("erin", "LOWCAPUSDT", 4, 10_000, models.TierVIP, base))
	require.NotNil(t, c2)
	require.Equal(t, models.ConflictMarketImpact, c2.Type)
	require.Equal(t, models.SeverityCritical, c2.Severity)
}

func TestMarketImpactSkippedWhenOracleMisses(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	c := s.Evaluate(context.Background(), request("erin", "UNKNOWNUSDT", 2, 10_000, models.TierVIP, base))
	require.Nil(t, c)
}

func TestClusterRisk(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{"BNBUSDT": 1_200_000_000})

	a := request("alice", "BNBUSDT", 1, 100, models.TierVIP, base.Add(-time.Minute))
	a.Strategy = "grid-bot"
	b := request("bob", "BNBUSDT", 1, 100, models.TierVIP, base.Add(-time.Minute))
	b.Strategy = "grid-bot"
	reg.Register(*a)
	reg.Register(*b)

	req := request("carol", "BNBUSDT", 1, 100, models.TierVIP, base)
	req.Strategy = "grid-bot"
	c := s.Evaluate(context.Background(), req)
	require.NotNil(t, c)
	require.Equal(t, models.ConflictClusterRisk, c.Type)
	require.Equal(t, models.SeverityMedium, c.Severity)
	require.Equal(t, models.ActionAlternativeSymbol, c.Action)
}

func TestClusterRiskIgnoresUntaggedRequests(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{"BNBUSDT": 1_200_000_000})

	reg.Register(*request("alice", "BNBUSDT", 1, 100, models.TierVIP, base.Add(-time.Minute)))

	req := request("carol", "BNBUSDT", 1, 100, models.TierVIP, base)
	req.Strategy = "grid-bot"
	require.Nil(t, s.Evaluate(context.Background(), req))
}

func TestRuleOrderShortCircuits(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{"BTCUSDT": 1})

	reg.Register(*request("alice", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))
	reg.Register(*request("bob", "BTCUSDT", 1, 100, models.TierFree, base.Add(-time.Minute)))

	// Would also be a whale and an extreme impact, but same_symbol fires first.
	c := s.Evaluate(context.Background(), request("carol", "BTCUSDT", 10, 10_000, models.TierFree, base))
	require.NotNil(t, c)
	require.Equal(t, models.ConflictSameSymbol, c.Type)
}

func TestCheckTierLimits(t *testing.T) {
	s := newScorer(t, registry.New(), fixedVolumes{})

	v := s.CheckTierLimits(models.TierFree, decimal.NewFromInt(1_500))
	require.NotNil(t, v)
	require.True(t, v.Limit.Equal(decimal.NewFromInt(1_000)))

	require.Nil(t, s.CheckTierLimits(models.TierFree, decimal.NewFromInt(1_000)))
	require.Nil(t, s.CheckTierLimits(models.TierVIP, decimal.NewFromInt(500_000)))
}

func TestAssessMarketRiskGrading(t *testing.T) {
	reg := registry.New()
	s := newScorer(t, reg, fixedVolumes{})

	require.Equal(t, models.RiskLow, s.AssessMarketRisk("BTCUSDT").Level)

	for i, user := range []string{"a", "b", "c"} {
		reg.Register(*request(user, "BTCUSDT", 1, 100, models.TierVIP, base.Add(time.Duration(i)*time.Second)))
	}
	assessment := s.AssessMarketRisk("BTCUSDT")
	require.Equal(t, models.RiskMedium, assessment.Level)
	require.Equal(t, 3, assessment.DistinctUsers)
	require.NotEmpty(t, assessment.Recommendation)

	reg.Register(*request("whale", "BTCUSDT", 200, 10_000, models.TierVIP, base))
	require.Equal(t, models.RiskExtreme, s.AssessMarketRisk("BTCUSDT").Level)
}

func TestSimilarityHeuristic(t *testing.T) {
	sim := TagSimilarity{}
	require.Equal(t, 1.0, sim.Similarity("grid-bot", "Grid-Bot"))
	require.Equal(t, 0.9, sim.Similarity("grid", "grid-v2"))
	require.Equal(t, 0.0, sim.Similarity("momentum", ""))
	require.InDelta(t, 0.33, sim.Similarity("grid-bot", "dca-bot"), 0.01)
}
