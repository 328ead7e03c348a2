package di

import (
	"fmt"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/internal/handler/api"
	internalrepo "TradeGate/internal/repository"
	"TradeGate/internal/service/alternatives"
	"TradeGate/internal/service/exchange"
	"TradeGate/internal/service/marketdata"
	"TradeGate/internal/service/policy"
	"TradeGate/internal/service/ratelimit"
	"TradeGate/internal/service/reaper"
	"TradeGate/internal/service/registry"
	"TradeGate/internal/service/risk"
	"TradeGate/internal/usecase"
	"TradeGate/pkg/cache"
	"TradeGate/pkg/clock"
	"TradeGate/pkg/config"
	xhttp "TradeGate/pkg/http"
	pkgkafka "TradeGate/pkg/kafka"
	"TradeGate/pkg/logger"
	"TradeGate/pkg/metrics"
	"TradeGate/pkg/server"

	"github.com/shopspring/decimal"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClock provides the wall clock.
func ProvideClock() clock.Clock {
	return clock.System{}
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry creates the shared admission registry.
func ProvideRegistry() *registry.Registry {
	return registry.New()
}

// ProvideAnalyzer creates the timing collision analyzer.
func ProvideAnalyzer(cfg *config.Config, reg *registry.Registry) *registry.Analyzer {
	return registry.NewAnalyzer(reg, cfg.Admission.TimingWindow, cfg.Admission.CollisionThreshold)
}

// ProvidePolicyEngine builds the tier policy tables, applying overrides
// from config on top of the published defaults. Unknown tier names are
// rejected by config validation before this runs.
func ProvidePolicyEngine(cfg *config.Config) *policy.Engine {
	overrides := make(map[models.Tier]policy.Limits, len(cfg.Tiers))
	for name, tl := range cfg.Tiers {
		tier, err := models.ParseTier(name)
		if err != nil {
			continue
		}
		overrides[tier] = policy.Limits{
			MaxConcurrentUsers: tl.MaxConcurrentUsers,
			MaxTradeValue:      decimal.NewFromFloat(tl.MaxTradeValue),
			MaxDailyTrades:     tl.MaxDailyTrades,
		}
	}
	return policy.NewEngine(overrides)
}

// ProvideRateLimiter creates the shared exchange request limiter.
func ProvideRateLimiter(cfg *config.Config) (*ratelimit.Limiter, error) {
	return ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
}

// ProvideCache picks the cache backend from config. Redis when enabled,
// in-process otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	mem := cache.NewMemoryCache(cfg.Cache.MaxSize)
	if !cfg.Cache.Redis.Enabled {
		return mem, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(mem, rc), nil
}

// ProvideExchangeClient creates the exchange REST client.
func ProvideExchangeClient(cfg *config.Config, limiter *ratelimit.Limiter, m repository.Metrics, log *logger.Logger) *exchange.Client {
	return exchange.NewClient(cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Exchange.Timeout, limiter, m, log)
}

// ProvideLiveVolumes creates the table fed by the market-data stream.
func ProvideLiveVolumes() *marketdata.LiveVolumeTable {
	return marketdata.NewLiveVolumeTable()
}

// ProvideVolumeOracle chains the volume sources: live stream first, then
// the cached exchange REST lookup, then the static table.
func ProvideVolumeOracle(cfg *config.Config, live *marketdata.LiveVolumeTable, ex *exchange.Client, c cache.Service) repository.VolumeOracle {
	return marketdata.OracleChain{
		live,
		marketdata.NewCachedOracle(ex, c, cfg.Cache.VolumeTTL),
		marketdata.NewStaticVolumeTable(),
	}
}

// ProvideCollector creates the market-data collector, or nil when the
// stream is disabled in config.
func ProvideCollector(cfg *config.Config, live *marketdata.LiveVolumeTable, log *logger.Logger) *marketdata.Collector {
	if !cfg.MarketData.Enabled {
		return nil
	}
	stream := marketdata.NewStream(cfg.MarketData.WebSocketURL, cfg.MarketData.Symbols, cfg.MarketData.PingInterval, log)
	return marketdata.NewCollector(stream, live, cfg.MarketData.ReconnectDelay, log)
}

// ProvideScorer wires the conflict rule chain.
func ProvideScorer(cfg *config.Config, pol *policy.Engine, reg *registry.Registry, analyzer *registry.Analyzer, volumes repository.VolumeOracle) *risk.Scorer {
	rc := risk.Config{
		WhaleThreshold:      decimal.NewFromFloat(cfg.Admission.WhaleThreshold),
		ImpactWarnRatio:     cfg.Admission.ImpactWarnRatio,
		ImpactCriticalRatio: cfg.Admission.ImpactCritical,
		ClusterSimilarity:   cfg.Admission.ClusterSimilarity,
	}
	return risk.NewScorer(rc, pol, reg, analyzer, volumes, risk.TagSimilarity{})
}

// ProvidePublisher creates the Kafka decision publisher, or a no-op when
// the export is disabled.
func ProvidePublisher(cfg *config.Config) (repository.DecisionPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopDecisionPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideReaper creates the registry reaper.
func ProvideReaper(cfg *config.Config, reg *registry.Registry, clk clock.Clock, log *logger.Logger, m repository.Metrics) *reaper.Reaper {
	return reaper.New(reg, cfg.Admission.ReaperInterval, cfg.Admission.RetentionTTL, clk, log, m)
}

// ProvideAdmissionEngine wires the admission facade.
func ProvideAdmissionEngine(
	reg *registry.Registry,
	scorer *risk.Scorer,
	pub repository.DecisionPublisher,
	m repository.Metrics,
	log *logger.Logger,
	clk clock.Clock,
) *usecase.AdmissionEngine {
	return usecase.NewAdmissionEngine(reg, scorer, alternatives.NewRecommender(), pub, m, log, clk)
}

// ProvidePlacementWorkflow wires the submit path.
func ProvidePlacementWorkflow(admission *usecase.AdmissionEngine, ex *exchange.Client, log *logger.Logger) *usecase.PlacementWorkflow {
	return usecase.NewPlacementWorkflow(admission, ex, log)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *logger.Logger, admission *usecase.AdmissionEngine, placement *usecase.PlacementWorkflow) xhttp.Handler {
	return api.NewAdmissionHandler(log, admission, placement)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	rp *reaper.Reaper,
	collector *marketdata.Collector,
	pub repository.DecisionPublisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, log, handler, rp, collector, pub, c)
}
