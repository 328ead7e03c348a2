package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type TierLimits struct {
	MaxConcurrentUsers int     `yaml:"max_concurrent_users"`
	MaxTradeValue      float64 `yaml:"max_trade_value"`
	MaxDailyTrades     int     `yaml:"max_daily_trades"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Admission struct {
		TimingWindow       time.Duration `yaml:"timing_window"`
		CollisionThreshold int           `yaml:"collision_threshold"`
		WhaleThreshold     float64       `yaml:"whale_threshold"`
		ImpactWarnRatio    float64       `yaml:"impact_warn_ratio"`
		ImpactCritical     float64       `yaml:"impact_critical_ratio"`
		ClusterSimilarity  float64       `yaml:"cluster_similarity"`
		ReaperInterval     time.Duration `yaml:"reaper_interval"`
		RetentionTTL       time.Duration `yaml:"retention_ttl"`
	} `yaml:"admission"`
	Tiers     map[string]TierLimits `yaml:"tiers"`
	RateLimit struct {
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate_limit"`
	Exchange struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"exchange"`
	MarketData struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"market_data"`
	Cache struct {
		VolumeTTL time.Duration `yaml:"volume_ttl"`
		MaxSize   int           `yaml:"max_size"`
		Redis     struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		Linger       time.Duration `yaml:"linger"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.MarketData.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// applyDefaults fills in the published policy defaults for anything the file
// leaves at zero.
func (c *Config) applyDefaults() {
	if c.Admission.TimingWindow == 0 {
		c.Admission.TimingWindow = 3 * time.Second
	}
	if c.Admission.CollisionThreshold == 0 {
		c.Admission.CollisionThreshold = 3
	}
	if c.Admission.WhaleThreshold == 0 {
		c.Admission.WhaleThreshold = 50_000
	}
	if c.Admission.ImpactWarnRatio == 0 {
		c.Admission.ImpactWarnRatio = 0.001
	}
	if c.Admission.ImpactCritical == 0 {
		c.Admission.ImpactCritical = 0.01
	}
	if c.Admission.ClusterSimilarity == 0 {
		c.Admission.ClusterSimilarity = 0.8
	}
	if c.Admission.ReaperInterval == 0 {
		c.Admission.ReaperInterval = 3 * time.Minute
	}
	if c.Admission.RetentionTTL == 0 {
		c.Admission.RetentionTTL = 3 * time.Minute
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 1_200
	}
	if c.Cache.VolumeTTL == 0 {
		c.Cache.VolumeTTL = time.Minute
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 1_000
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.MaxAttempts == 0 {
		c.Kafka.MaxAttempts = 3
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.Linger == 0 {
		c.Kafka.Linger = 200 * time.Millisecond
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid. A misconfigured rate limiter
// is a fatal startup error here, never a runtime stall.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Admission.CollisionThreshold < 1 {
		return fmt.Errorf("admission.collision_threshold must be at least 1, got %d", c.Admission.CollisionThreshold)
	}
	if c.Admission.TimingWindow <= 0 {
		return fmt.Errorf("admission.timing_window must be positive, got %s", c.Admission.TimingWindow)
	}
	if c.Admission.WhaleThreshold <= 0 {
		return fmt.Errorf("admission.whale_threshold must be positive, got %v", c.Admission.WhaleThreshold)
	}
	if c.Admission.ImpactWarnRatio <= 0 || c.Admission.ImpactWarnRatio >= c.Admission.ImpactCritical {
		return fmt.Errorf("admission impact ratios must satisfy 0 < warn < critical")
	}
	if c.Admission.ClusterSimilarity <= 0 || c.Admission.ClusterSimilarity > 1 {
		return fmt.Errorf("admission.cluster_similarity must be in (0, 1], got %v", c.Admission.ClusterSimilarity)
	}
	if c.Admission.ReaperInterval <= 0 || c.Admission.RetentionTTL <= 0 {
		return fmt.Errorf("admission reaper interval and retention ttl must be positive")
	}
	for name, t := range c.Tiers {
		switch name {
		case "free", "basic", "premium", "vip":
		default:
			return fmt.Errorf("tiers: unknown tier %q", name)
		}
		if t.MaxConcurrentUsers < 0 || t.MaxTradeValue < 0 || t.MaxDailyTrades < 0 {
			return fmt.Errorf("tiers.%s: limits must not be negative", name)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka is enabled")
	}
	if c.MarketData.Enabled && c.MarketData.WebSocketURL == "" {
		return fmt.Errorf("market_data.websocket_url required when market data is enabled")
	}
	return nil
}
