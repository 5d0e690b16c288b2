// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Warm       WarmConfig       `yaml:"warm"`
	Notify     NotifyConfig     `yaml:"notify"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AggregatorConfig defines the aggregation engine settings.
type AggregatorConfig struct {
	// Timeout is the per-provider call budget.
	Timeout time.Duration `yaml:"timeout"`

	// DefaultCurrency and DefaultCountry are applied to queries that
	// carry no hint of their own.
	DefaultCurrency string `yaml:"default_currency"`
	DefaultCountry  string `yaml:"default_country"`
}

// CacheConfig defines the shared provider cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// RateLimitConfig defines the two-tier rate limiting settings.
type RateLimitConfig struct {
	// GlobalInterval paces all outbound calls collectively;
	// GlobalConcurrency caps how many run at once.
	GlobalInterval    time.Duration `yaml:"global_interval"`
	GlobalConcurrency int           `yaml:"global_concurrency"`

	// ProviderInterval paces each provider independently.
	ProviderInterval time.Duration `yaml:"provider_interval"`
}

// ProvidersConfig enables and configures the marketplace adapters.
type ProvidersConfig struct {
	Steam   SteamConfig   `yaml:"steam"`
	CSFloat CSFloatConfig `yaml:"csfloat"`
	DMarket DMarketConfig `yaml:"dmarket"`
}

// SteamConfig defines Steam Community Market adapter settings.
type SteamConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// CSFloatConfig defines CSFloat adapter settings.
type CSFloatConfig struct {
	Enabled *bool  `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// DMarketConfig defines DMarket adapter settings.
type DMarketConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// WarmConfig defines the warm-query scheduler settings.
type WarmConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Queries  []string      `yaml:"queries"`
}

// NotifyConfig defines deal alert delivery settings. Alerts fire from the
// warm-query scheduler, so they require warm queries to be enabled.
type NotifyConfig struct {
	// DiscordWebhookURL enables Discord delivery when set; empty falls
	// back to a logging no-op.
	DiscordWebhookURL string `yaml:"discord_webhook_url"`

	// MinDiscount is the percent below the 30-day median a listing must
	// reach to alert.
	MinDiscount float64 `yaml:"min_discount"`
}

// TracingConfig defines OpenTelemetry export settings.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		// Expand environment variables in the YAML content.
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyAggregatorDefaults(&cfg.Aggregator)
	applyCacheDefaults(&cfg.Cache)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyProviderDefaults(&cfg.Providers)
	applyWarmDefaults(&cfg.Warm)
	applyNotifyDefaults(&cfg.Notify)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyAggregatorDefaults(a *AggregatorConfig) {
	if a.Timeout == 0 {
		a.Timeout = 9 * time.Second
	}
	if a.DefaultCurrency == "" {
		a.DefaultCurrency = "USD"
	}
	if a.DefaultCountry == "" {
		a.DefaultCountry = "US"
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.GlobalInterval == 0 {
		r.GlobalInterval = 125 * time.Millisecond
	}
	if r.GlobalConcurrency == 0 {
		r.GlobalConcurrency = 16
	}
	if r.ProviderInterval == 0 {
		r.ProviderInterval = time.Second
	}
}

func applyProviderDefaults(p *ProvidersConfig) {
	enabled := true
	if p.Steam.Enabled == nil {
		p.Steam.Enabled = &enabled
	}
	if p.CSFloat.Enabled == nil {
		p.CSFloat.Enabled = &enabled
	}
	if p.DMarket.Enabled == nil {
		p.DMarket.Enabled = &enabled
	}
}

func applyWarmDefaults(w *WarmConfig) {
	if w.Interval == 0 {
		w.Interval = 10 * time.Minute
	}
}

func applyNotifyDefaults(n *NotifyConfig) {
	if n.MinDiscount == 0 {
		n.MinDiscount = 20
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535 (got %d)", cfg.Server.Port))
	}
	if cfg.Aggregator.Timeout < 0 {
		errs = append(errs, fmt.Errorf("aggregator.timeout must not be negative"))
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}
	if cfg.RateLimit.GlobalConcurrency < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.global_concurrency must be at least 1"))
	}
	if cfg.Notify.MinDiscount < 0 {
		errs = append(errs, fmt.Errorf("notify.min_discount must not be negative"))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)",
			cfg.Logging.Level,
		))
	}

	if !*cfg.Providers.Steam.Enabled &&
		!*cfg.Providers.CSFloat.Enabled &&
		!*cfg.Providers.DMarket.Enabled {
		errs = append(errs, fmt.Errorf("at least one provider must be enabled"))
	}

	return errors.Join(errs...)
}
