package cmd

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/skindex/skindex/internal/aggregator"
	"github.com/skindex/skindex/internal/cache"
	"github.com/skindex/skindex/internal/config"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/notify"
	"github.com/skindex/skindex/internal/provider"
	"github.com/skindex/skindex/internal/ratelimit"
)

// buildProviders constructs the enabled marketplace adapters over a shared
// response cache.
func buildProviders(cfg *config.Config) []market.Provider {
	c := cache.New[string, []market.MarketResult](cfg.Cache.TTL)

	var providers []market.Provider
	if *cfg.Providers.Steam.Enabled {
		providers = append(providers, provider.NewSteam(c))
	}
	if *cfg.Providers.CSFloat.Enabled {
		opts := []provider.CSFloatOption{}
		if cfg.Providers.CSFloat.APIKey != "" {
			opts = append(opts, provider.WithCSFloatAPIKey(cfg.Providers.CSFloat.APIKey))
		}
		providers = append(providers, provider.NewCSFloat(c, opts...))
	}
	if *cfg.Providers.DMarket.Enabled {
		providers = append(providers, provider.NewDMarket(c))
	}
	return providers
}

// buildAggregator wires providers, rate limits, and the aggregation engine
// from configuration.
func buildAggregator(cfg *config.Config, log *slog.Logger, tracer trace.Tracer) *aggregator.Aggregator {
	limits := ratelimit.NewRegistry(
		cfg.RateLimit.GlobalInterval,
		cfg.RateLimit.GlobalConcurrency,
		cfg.RateLimit.ProviderInterval,
	)

	return aggregator.New(buildProviders(cfg), limits,
		aggregator.WithTimeout(cfg.Aggregator.Timeout),
		aggregator.WithLogger(log),
		aggregator.WithTracer(tracer),
	)
}

// buildNotifier picks the alert backend: Discord when a webhook is
// configured, otherwise a logging no-op.
func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if cfg.Notify.DiscordWebhookURL != "" {
		return notify.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL)
	}
	return notify.NewNoOpNotifier(log)
}

// warmQueries converts the configured warm query strings into search queries
// using the aggregator-wide currency and country defaults.
func warmQueries(cfg *config.Config) []market.SearchQuery {
	queries := make([]market.SearchQuery, 0, len(cfg.Warm.Queries))
	for _, text := range cfg.Warm.Queries {
		queries = append(queries, market.SearchQuery{
			Text:     text,
			Currency: cfg.Aggregator.DefaultCurrency,
			Country:  cfg.Aggregator.DefaultCountry,
		})
	}
	return queries
}
