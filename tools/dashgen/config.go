package main

import "errors"

// KnownMetrics is the set of metric names exported by skindex plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"skindex_http_request_duration_seconds": true,
	"skindex_http_requests_total":           true,

	// Health metrics.
	"skindex_healthz_up": true,
	"skindex_readyz_up":  true,

	// Aggregation metrics.
	"skindex_search_duration_seconds": true,
	"skindex_search_results_returned": true,

	// Provider metrics.
	"skindex_provider_calls_total":           true,
	"skindex_provider_call_duration_seconds": true,

	// Cache metrics.
	"skindex_cache_hits_total":   true,
	"skindex_cache_misses_total": true,

	// Notification metrics.
	"skindex_notification_duration_seconds": true,
	"skindex_notifications_total":           true,

	// Recording rules.
	"skindex:http_requests:rate5m":         true,
	"skindex:http_errors:rate5m":           true,
	"skindex:provider_calls:rate5m":        true,
	"skindex:provider_errors:rate5m":       true,
	"skindex:cache_hit_ratio:5m":           true,
	"skindex:notification_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
