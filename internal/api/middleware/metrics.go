// Package middleware provides the Echo middleware stack for the skindex API
// server: request logging, panic recovery, and Prometheus instrumentation.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skindex/skindex/internal/metrics"
)

// healthGauges maps probe paths to their up/down gauge. Probe and scrape
// endpoints stay out of the request histograms: they fire every few seconds
// and carry no latency signal, so they would only dilute the series
// dashboards alert on.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

func operational(path string) bool {
	if path == "/metrics" {
		return true
	}
	_, ok := healthGauges[path]
	return ok
}

// Metrics returns Echo middleware recording per-route request duration and
// status counts. Operational paths bypass the histograms; probe paths drive
// the healthz/readyz gauges instead.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if operational(path) {
				err := next(c)
				if gauge, ok := healthGauges[path]; ok {
					setUpDown(gauge, c.Response().Status)
				}
				return err
			}

			start := time.Now()
			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, path, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(c.Request().Method, path, status).
				Inc()

			return err
		}
	}
}

func setUpDown(g prometheus.Gauge, status int) {
	if status >= 200 && status < 300 {
		g.Set(1)
		return
	}
	g.Set(0)
}
