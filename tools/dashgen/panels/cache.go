package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CacheHitRatioGauge returns a gauge panel showing the provider cache hit
// ratio over the last five minutes.
func CacheHitRatioGauge() *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("Cache Hit %").
		Description("Provider cache hit ratio over the last 5 minutes").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`skindex:cache_hit_ratio:5m * 100`, "", "A")).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(ThresholdsRedGreen(50)).
		ColorScheme(ColorSchemeThresholds())
}

// CacheTraffic returns a timeseries panel showing cache hits and misses
// per second, by provider.
func CacheTraffic() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Traffic").
		Description("Provider cache hits and misses per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(skindex_cache_hits_total{job="skindex"}[5m])) by (provider)`,
			"{{provider}} hits", "A",
		)).
		WithTarget(PromQuery(
			`sum(rate(skindex_cache_misses_total{job="skindex"}[5m])) by (provider)`,
			"{{provider}} misses", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
