package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SearchLatency returns a timeseries panel showing p50 and p95 aggregation
// run latencies.
func SearchLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Search Duration").
		Description("Full aggregation run duration percentiles").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(skindex_search_duration_seconds_bucket{job="skindex"}[5m])) by (le))`,
			"p50",
			"A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(skindex_search_duration_seconds_bucket{job="skindex"}[5m])) by (le))`,
			"p95",
			"B",
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

// ResultsReturned returns a timeseries panel showing the median merged
// result count per aggregation run.
func ResultsReturned() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Results per Search").
		Description("Median merged result count per aggregation run").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(skindex_search_results_returned_bucket{job="skindex"}[5m])) by (le))`,
			"median results",
			"A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
