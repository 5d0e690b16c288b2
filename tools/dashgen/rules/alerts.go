package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// skindex operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "skindex-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "skindex-alerts",
					Rules: []Rule{
						{
							Alert: "SkindexDown",
							Expr:  `absent(up{job="skindex"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Skindex is down",
								"description": "The skindex job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "SkindexReadinessDown",
							Expr:  `skindex_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Skindex readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "SkindexHighErrorRate",
							Expr:  `skindex:http_errors:rate5m / skindex:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on skindex",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "SkindexProviderFailures",
							Expr:  `skindex:provider_errors:rate5m > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "A marketplace provider is failing",
								"description": "Provider calls have been erroring or timing out at more than 0.1/s for the last 5 minutes.",
							},
						},
						{
							Alert: "SkindexSlowSearches",
							Expr:  `histogram_quantile(0.95, sum(rate(skindex_search_duration_seconds_bucket[5m])) by (le)) > 8`,
							For:   "10m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Aggregated searches are running close to the provider budget",
								"description": "The p95 aggregation run duration has been above 8 seconds for 10 minutes, leaving little headroom before provider timeouts.",
							},
						},
						{
							Alert: "SkindexLowCacheHitRatio",
							Expr:  `skindex:cache_hit_ratio:5m < 0.2`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Provider cache hit ratio is low",
								"description": "Fewer than 20% of provider lookups are served from cache, increasing marketplace API pressure.",
							},
						},
						{
							Alert: "SkindexNotificationFailures",
							Expr:  `skindex:notification_failures:rate5m > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Deal alert delivery failures detected",
								"description": "One or more deal alert webhooks have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
