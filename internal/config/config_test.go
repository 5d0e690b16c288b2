package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file gets all defaults",
			yaml: "",
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 9*time.Second, cfg.Aggregator.Timeout)
				assert.Equal(t, "USD", cfg.Aggregator.DefaultCurrency)
				assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
				assert.Equal(t, 125*time.Millisecond, cfg.RateLimit.GlobalInterval)
				assert.Equal(t, 16, cfg.RateLimit.GlobalConcurrency)
				assert.Equal(t, time.Second, cfg.RateLimit.ProviderInterval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.True(t, *cfg.Providers.Steam.Enabled)
				assert.True(t, *cfg.Providers.CSFloat.Enabled)
				assert.True(t, *cfg.Providers.DMarket.Enabled)
				assert.Equal(t, 10*time.Minute, cfg.Warm.Interval)
				assert.InDelta(t, 20.0, cfg.Notify.MinDiscount, 1e-9)
				assert.Empty(t, cfg.Notify.DiscordWebhookURL)
				assert.Equal(t, "localhost:4317", cfg.Tracing.Endpoint)
			},
		},
		{
			name: "explicit values override defaults",
			yaml: `
server:
  port: 9090
aggregator:
  timeout: 3s
  default_currency: EUR
cache:
  ttl: 90s
rate_limit:
  global_interval: 250ms
  global_concurrency: 4
  provider_interval: 2s
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 3*time.Second, cfg.Aggregator.Timeout)
				assert.Equal(t, "EUR", cfg.Aggregator.DefaultCurrency)
				assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
				assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.GlobalInterval)
				assert.Equal(t, 4, cfg.RateLimit.GlobalConcurrency)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "environment variables expand",
			yaml: `
providers:
  csfloat:
    api_key: ${CSFLOAT_API_KEY}
`,
			envVars: map[string]string{"CSFLOAT_API_KEY": "secret-from-env"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "secret-from-env", cfg.Providers.CSFloat.APIKey)
			},
		},
		{
			name: "disabling one provider keeps the rest",
			yaml: `
providers:
  steam:
    enabled: false
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.False(t, *cfg.Providers.Steam.Enabled)
				assert.True(t, *cfg.Providers.CSFloat.Enabled)
				assert.True(t, *cfg.Providers.DMarket.Enabled)
			},
		},
		{
			name: "warm queries parsed",
			yaml: `
warm:
  enabled: true
  interval: 5m
  queries:
    - awp asiimov
    - ak-47 redline
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Warm.Enabled)
				assert.Equal(t, 5*time.Minute, cfg.Warm.Interval)
				assert.Equal(t, []string{"awp asiimov", "ak-47 redline"}, cfg.Warm.Queries)
			},
		},
		{
			name: "notify settings parsed",
			yaml: `
notify:
  discord_webhook_url: https://discord.com/api/webhooks/123/abc
  min_discount: 30
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://discord.com/api/webhooks/123/abc", cfg.Notify.DiscordWebhookURL)
				assert.InDelta(t, 30.0, cfg.Notify.MinDiscount, 1e-9)
			},
		},
		{
			name: "negative min discount rejected",
			yaml: `
notify:
  min_discount: -5
`,
			wantErr: "notify.min_discount",
		},
		{
			name: "all providers disabled rejected",
			yaml: `
providers:
  steam:
    enabled: false
  csfloat:
    enabled: false
  dmarket:
    enabled: false
`,
			wantErr: "at least one provider must be enabled",
		},
		{
			name: "invalid port rejected",
			yaml: `
server:
  port: 99999
`,
			wantErr: "server.port",
		},
		{
			name: "negative timeout rejected",
			yaml: `
aggregator:
  timeout: -2s
`,
			wantErr: "aggregator.timeout",
		},
		{
			name: "unknown logging level rejected",
			yaml: `
logging:
  level: verbose
`,
			wantErr: "logging.level",
		},
		{
			name:    "malformed yaml rejected",
			yaml:    "server: [not a map",
			wantErr: "parsing config YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9*time.Second, cfg.Aggregator.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
