package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/notify"
)

const batchThreshold = 5

// Scheduler periodically re-runs a configured set of warm queries through
// the aggregator so provider caches stay hot for the searches users repeat
// most. When a notifier is configured it also scans the refreshed results
// for deals and sends alerts. Failures are logged and never fatal.
type Scheduler struct {
	cron       *cron.Cron
	aggregator *Aggregator
	queries    []market.SearchQuery
	log        *slog.Logger

	notifier    notify.Notifier
	minDiscount float64

	// notified suppresses repeat alerts for a listing until its price
	// moves. Keyed by market, name and price. Guarded by mu because cron
	// runs overlapping invocations in separate goroutines.
	mu       sync.Mutex
	notified map[string]bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithNotifier enables deal alerts for warm-query results whose discount
// against the 30-day median is at least minDiscount percent.
func WithNotifier(n notify.Notifier, minDiscount float64) SchedulerOption {
	return func(s *Scheduler) {
		s.notifier = n
		s.minDiscount = minDiscount
	}
}

// NewScheduler creates a Scheduler that replays queries every interval.
func NewScheduler(
	agg *Aggregator,
	queries []market.SearchQuery,
	interval time.Duration,
	log *slog.Logger,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:       c,
		aggregator: agg,
		queries:    queries,
		log:        log,
		notified:   make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runWarmQueries); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled warm-ups.
func (s *Scheduler) Start() {
	s.log.Info("warm-query scheduler started",
		"queries", len(s.queries),
		"alerts", s.notifier != nil,
	)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("warm-query scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runWarmQueries() {
	ctx := context.Background()
	for _, q := range s.queries {
		res := s.aggregator.SearchAll(ctx, q)
		s.log.Debug("warm query refreshed",
			"text", q.Text,
			"results", len(res.Results),
		)

		if s.notifier != nil {
			s.processDeals(ctx, q, res.Results)
		}
	}
}

// processDeals sends alerts for results whose discount clears the threshold.
// Five or more deals for one query go out as a single batch message.
func (s *Scheduler) processDeals(ctx context.Context, q market.SearchQuery, results []market.MarketResult) {
	var alerts []notify.AlertPayload

	for i := range results {
		r := &results[i]
		discount, ok := r.Discount()
		if !ok || discount < s.minDiscount {
			continue
		}

		key := dealKey(r)
		s.mu.Lock()
		seen := s.notified[key]
		if !seen {
			s.notified[key] = true
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		alerts = append(alerts, notify.AlertPayload{
			Query:        q.Text,
			Market:       r.Market,
			Name:         r.Name,
			URL:          r.URL,
			Price:        *r.Price,
			Currency:     r.Currency,
			MedianPrice:  *r.Median30d,
			Discount:     discount,
			Float:        r.FloatValue,
			Availability: r.Availability,
		})
	}

	if len(alerts) == 0 {
		return
	}

	var err error
	if len(alerts) >= batchThreshold {
		err = s.notifier.SendBatchAlert(ctx, alerts, q.Text)
	} else {
		for i := range alerts {
			if err = s.notifier.SendAlert(ctx, &alerts[i]); err != nil {
				break
			}
		}
	}
	if err != nil {
		s.log.Warn("deal alert delivery failed", "query", q.Text, "error", err)
	}
}

func dealKey(r *market.MarketResult) string {
	return fmt.Sprintf("%s|%s|%.2f", r.Market, r.Name, *r.Price)
}
