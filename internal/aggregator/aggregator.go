// Package aggregator orchestrates concurrent marketplace searches: fan-out
// to every selected provider through the two-tier rate limiters, a fixed
// per-call timeout, per-provider failure isolation, and a deterministic
// merge and sort of whatever came back.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/metrics"
	"github.com/skindex/skindex/internal/ratelimit"
)

// DefaultTimeout is the per-provider call budget.
const DefaultTimeout = 9 * time.Second

// Aggregator fans a search query out to registered providers and merges the
// results. A provider failure or timeout never affects sibling providers and
// never fails the aggregation.
type Aggregator struct {
	providers []market.Provider
	limits    *ratelimit.Registry
	timeout   time.Duration
	log       *slog.Logger
	tracer    trace.Tracer
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-provider call budget.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithTracer sets the tracer for aggregation spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) {
		a.tracer = t
	}
}

// New creates an Aggregator over the given providers. Provider iteration
// order is preserved in execution reports and merge order.
func New(providers []market.Provider, limits *ratelimit.Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		providers: providers,
		limits:    limits,
		timeout:   DefaultTimeout,
		log:       slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the names of all registered providers in iteration order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// SearchAll runs the query against all (or the requested subset of)
// providers and returns the merged, sorted results plus one execution record
// per queried provider. It does not return an error: provider-level failures
// are folded into the execution report.
func (a *Aggregator) SearchAll(ctx context.Context, query market.SearchQuery) market.AggregatedSearchResult {
	ctx, span := a.tracer.Start(ctx, "aggregator.search-all")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(query.Text) == "" {
		a.log.Warn("empty search text, nothing to query")
		return market.AggregatedSearchResult{Results: []market.MarketResult{}}
	}

	runID := uuid.NewString()
	selected := a.resolveProviders(query)

	a.log.Info("aggregation starting",
		"run_id", runID,
		"text", query.Text,
		"providers", len(selected),
	)

	executions := make([]market.ProviderExecution, len(selected))
	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p market.Provider) {
			defer wg.Done()
			executions[i] = a.callProvider(ctx, p, query)
		}(i, p)
	}
	wg.Wait()

	merged := make([]market.MarketResult, 0)
	for i := range executions {
		merged = append(merged, executions[i].Results...)
	}

	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = market.SortByPrice
	}
	market.Sort(merged, sortBy)

	metrics.SearchResultsReturned.Observe(float64(len(merged)))
	a.log.Info("aggregation complete",
		"run_id", runID,
		"results", len(merged),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return market.AggregatedSearchResult{
		Results:    merged,
		Executions: executions,
	}
}

// resolveProviders returns the providers matching the query's subset, or all
// providers when the subset is empty or matches nothing. An unrecognized
// subset broadens to the full set rather than failing the request.
func (a *Aggregator) resolveProviders(query market.SearchQuery) []market.Provider {
	if len(query.Providers) == 0 {
		return a.providers
	}

	requested := make(map[string]struct{}, len(query.Providers))
	for _, name := range query.Providers {
		requested[strings.ToLower(name)] = struct{}{}
	}

	selected := make([]market.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if _, ok := requested[strings.ToLower(p.Name())]; ok {
			selected = append(selected, p)
		}
	}

	if len(selected) == 0 {
		a.log.Warn("no registered provider matches requested subset, querying all",
			"requested", query.Providers,
		)
		return a.providers
	}
	return selected
}

type callOutcome struct {
	results []market.MarketResult
	err     error
}

// callProvider schedules one provider call through the limiters, races it
// against the timeout, and folds the outcome into an execution record. A
// call that loses the race keeps running in its goroutine until the
// cancelled context unwinds it; its eventual result is discarded and its
// limiter slots are released by the goroutine itself.
func (a *Aggregator) callProvider(ctx context.Context, p market.Provider, query market.SearchQuery) market.ProviderExecution {
	ctx, span := a.tracer.Start(ctx, "aggregator.provider-call")
	defer span.End()

	start := time.Now()
	exec := market.ProviderExecution{
		Provider: p.Name(),
		Results:  []market.MarketResult{},
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callOutcome{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()

		release, err := a.limits.Acquire(callCtx, p.Name())
		if err != nil {
			done <- callOutcome{err: err}
			return
		}
		defer release()

		results, err := p.Search(callCtx, query)
		done <- callOutcome{results: results, err: err}
	}()

	select {
	case out := <-done:
		exec.Duration = time.Since(start)
		a.recordOutcome(&exec, query, out)
	case <-callCtx.Done():
		exec.Duration = time.Since(start)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			a.markTimedOut(&exec)
		} else {
			exec.Error = callCtx.Err().Error()
			metrics.ProviderCallsTotal.WithLabelValues(exec.Provider, metrics.OutcomeError).Inc()
		}
	}

	metrics.ProviderCallDuration.WithLabelValues(exec.Provider).Observe(exec.Duration.Seconds())
	return exec
}

func (a *Aggregator) recordOutcome(exec *market.ProviderExecution, query market.SearchQuery, out callOutcome) {
	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			a.markTimedOut(exec)
			return
		}
		exec.Error = out.err.Error()
		metrics.ProviderCallsTotal.WithLabelValues(exec.Provider, metrics.OutcomeError).Inc()
		a.log.Warn("provider failed", "provider", exec.Provider, "error", out.err)
		return
	}

	filtered := make([]market.MarketResult, 0, len(out.results))
	for i := range out.results {
		if query.Matches(&out.results[i]) {
			filtered = append(filtered, out.results[i])
		}
	}
	if query.MaxResults > 0 && len(filtered) > query.MaxResults {
		filtered = filtered[:query.MaxResults]
	}
	exec.Results = filtered
	metrics.ProviderCallsTotal.WithLabelValues(exec.Provider, metrics.OutcomeOK).Inc()
}

func (a *Aggregator) markTimedOut(exec *market.ProviderExecution) {
	exec.TimedOut = true
	exec.Error = fmt.Sprintf("timeout after %s", a.timeout)
	metrics.ProviderCallsTotal.WithLabelValues(exec.Provider, metrics.OutcomeTimeout).Inc()
	a.log.Warn("provider timed out", "provider", exec.Provider, "timeout", a.timeout)
}
