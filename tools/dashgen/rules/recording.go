package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "skindex-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "skindex-recording",
					Rules: []Rule{
						{
							Record: "skindex:http_requests:rate5m",
							Expr:   `sum(rate(skindex_http_requests_total[5m]))`,
						},
						{
							Record: "skindex:http_errors:rate5m",
							Expr:   `sum(rate(skindex_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "skindex:provider_calls:rate5m",
							Expr:   `sum(rate(skindex_provider_calls_total[5m])) by (provider)`,
						},
						{
							Record: "skindex:provider_errors:rate5m",
							Expr:   `sum(rate(skindex_provider_calls_total{outcome!="ok"}[5m])) by (provider)`,
						},
						{
							Record: "skindex:cache_hit_ratio:5m",
							Expr: `sum(rate(skindex_cache_hits_total[5m])) / ` +
								`(sum(rate(skindex_cache_hits_total[5m])) + sum(rate(skindex_cache_misses_total[5m])))`,
						},
						{
							Record: "skindex:notification_failures:rate5m",
							Expr:   `sum(rate(skindex_notifications_total{outcome="error"}[5m]))`,
						},
					},
				},
			},
		},
	}
}
