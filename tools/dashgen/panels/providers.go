package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ProviderCallRate returns a timeseries panel showing the marketplace call
// rate per provider.
func ProviderCallRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Provider Calls").
		Description("Marketplace API calls per second, by provider").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`skindex:provider_calls:rate5m`, "{{provider}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ProviderFailures returns a timeseries panel showing error and timeout
// rates per provider.
func ProviderFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Provider Failures").
		Description("Provider errors and timeouts per second, by provider").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`skindex:provider_errors:rate5m`, "{{provider}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.01, 0.1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ProviderLatency returns a timeseries panel showing the p95 call latency
// per provider.
func ProviderLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Provider Latency (p95)").
		Description("95th percentile marketplace call duration, by provider").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(skindex_provider_call_duration_seconds_bucket{job="skindex"}[5m])) by (le, provider))`,
			"{{provider}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
