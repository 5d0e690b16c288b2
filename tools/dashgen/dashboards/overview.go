// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/skindex/skindex/tools/dashgen/panels"
)

// BuildOverview constructs the Skindex Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Skindex Overview").
		Uid("skindex-overview").
		Tags([]string{"skindex"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.CacheHitRatioGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Search.
	b.WithRow(dashboard.NewRowBuilder("Search").
		WithPanel(panels.SearchLatency()).
		WithPanel(panels.ResultsReturned()))

	// Row 4: Providers.
	b.WithRow(dashboard.NewRowBuilder("Providers").
		WithPanel(panels.ProviderCallRate()).
		WithPanel(panels.ProviderFailures()).
		WithPanel(panels.ProviderLatency()))

	// Row 5: Cache.
	b.WithRow(dashboard.NewRowBuilder("Cache").
		WithPanel(panels.CacheTraffic()))

	// Row 6: Alerts.
	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
