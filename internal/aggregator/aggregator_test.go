package aggregator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skindex/skindex/internal/aggregator"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/ratelimit"
	"github.com/skindex/skindex/pkg/logger"
)

func ptr[T any](v T) *T { return &v }

// fakeProvider is a scriptable provider for aggregation tests.
type fakeProvider struct {
	name    string
	results []market.MarketResult
	err     error
	delay   time.Duration
	// ignoreCtx simulates a provider that never checks its context.
	ignoreCtx bool
	panicWith any

	calls atomic.Int64
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, _ market.SearchQuery) ([]market.MarketResult, error) {
	f.calls.Add(1)

	if f.panicWith != nil {
		panic(f.panicWith)
	}

	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return f.results, f.err
}

func newRegistry() *ratelimit.Registry {
	return ratelimit.NewRegistry(0, 16, 0)
}

func result(marketName, name string, price float64) market.MarketResult {
	return market.MarketResult{
		Market:   marketName,
		Name:     name,
		Price:    ptr(price),
		Currency: "USD",
	}
}

func TestSearchAll_MergesAllProviders(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam", results: []market.MarketResult{
				result("steam", "AWP | Asiimov (Field-Tested)", 92.50),
			}},
			&fakeProvider{name: "csfloat", results: []market.MarketResult{
				result("csfloat", "AWP | Asiimov (Field-Tested)", 85.00),
				result("csfloat", "AWP | Asiimov (Battle-Scarred)", 60.00),
			}},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{Text: "awp asiimov"})

	require.Len(t, res.Results, 3)
	require.Len(t, res.Executions, 2)

	// Default sort is price ascending.
	assert.Equal(t, 60.00, *res.Results[0].Price)
	assert.Equal(t, 85.00, *res.Results[1].Price)
	assert.Equal(t, 92.50, *res.Results[2].Price)

	// Execution report preserves registration order.
	assert.Equal(t, "steam", res.Executions[0].Provider)
	assert.Equal(t, "csfloat", res.Executions[1].Provider)
}

func TestSearchAll_PartialFailure(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam", results: []market.MarketResult{
				result("steam", "AK-47 | Redline (Field-Tested)", 25.00),
			}},
			&fakeProvider{name: "csfloat", err: errors.New("upstream 503")},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{Text: "ak-47 redline"})

	require.Len(t, res.Results, 1)
	assert.Equal(t, "steam", res.Results[0].Market)

	require.Len(t, res.Executions, 2)
	assert.Empty(t, res.Executions[0].Error)
	assert.Contains(t, res.Executions[1].Error, "upstream 503")
	assert.False(t, res.Executions[1].TimedOut)
	assert.Empty(t, res.Executions[1].Results)
}

func TestSearchAll_ProviderPanicIsolated(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam", results: []market.MarketResult{
				result("steam", "Glock-18 | Fade (Factory New)", 900.00),
			}},
			&fakeProvider{name: "dmarket", panicWith: "nil map write"},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{Text: "glock fade"})

	require.Len(t, res.Results, 1)
	assert.Contains(t, res.Executions[1].Error, "provider panic")
}

func TestSearchAll_TimeoutDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	slow := &fakeProvider{name: "dmarket", delay: 5 * time.Second}
	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam", results: []market.MarketResult{
				result("steam", "AWP | Dragon Lore (Field-Tested)", 8400.00),
			}},
			slow,
		},
		newRegistry(),
		aggregator.WithTimeout(50*time.Millisecond),
		aggregator.WithLogger(logger.Quiet()),
	)

	start := time.Now()
	res := a.SearchAll(context.Background(), market.SearchQuery{Text: "awp dragon lore"})
	elapsed := time.Since(start)

	// The run is bounded by the call budget, not the slow provider.
	assert.Less(t, elapsed, time.Second)

	require.Len(t, res.Results, 1)
	assert.True(t, res.Executions[1].TimedOut)
	assert.Contains(t, res.Executions[1].Error, "timeout after")
	assert.Empty(t, res.Executions[1].Results)
}

func TestSearchAll_CtxIgnoringProviderStillBounded(t *testing.T) {
	t.Parallel()

	// A provider that sleeps without checking ctx must not stretch the run.
	rogue := &fakeProvider{name: "dmarket", delay: 2 * time.Second, ignoreCtx: true}
	a := aggregator.New(
		[]market.Provider{rogue},
		newRegistry(),
		aggregator.WithTimeout(50*time.Millisecond),
		aggregator.WithLogger(logger.Quiet()),
	)

	start := time.Now()
	res := a.SearchAll(context.Background(), market.SearchQuery{Text: "anything"})

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Executions[0].TimedOut)
}

func TestSearchAll_OrphanedCallReleasesLimiterSlots(t *testing.T) {
	t.Parallel()

	// One provider, serialized per-provider limiter. The first call times
	// out while still sleeping; once it unwinds, its slot must come back or
	// the second aggregation would also time out at the acquire stage.
	p := &fakeProvider{name: "steam", delay: 150 * time.Millisecond, ignoreCtx: true}
	limits := ratelimit.NewRegistry(0, 16, 0)

	short := aggregator.New(
		[]market.Provider{p},
		limits,
		aggregator.WithTimeout(50*time.Millisecond),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := short.SearchAll(context.Background(), market.SearchQuery{Text: "first"})
	assert.True(t, res.Executions[0].TimedOut)

	// Let the orphaned call finish and release.
	time.Sleep(200 * time.Millisecond)

	patient := aggregator.New(
		[]market.Provider{p},
		limits,
		aggregator.WithTimeout(time.Second),
		aggregator.WithLogger(logger.Quiet()),
	)
	res = patient.SearchAll(context.Background(), market.SearchQuery{Text: "second"})
	assert.False(t, res.Executions[0].TimedOut)
	assert.Empty(t, res.Executions[0].Error)
}

func TestSearchAll_EmptyTextShortCircuits(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "steam"}
	a := aggregator.New([]market.Provider{p}, newRegistry(),
		aggregator.WithLogger(logger.Quiet()))

	for _, text := range []string{"", "   "} {
		res := a.SearchAll(context.Background(), market.SearchQuery{Text: text})
		assert.Empty(t, res.Results)
		assert.Empty(t, res.Executions)
	}
	assert.Equal(t, int64(0), p.calls.Load())
}

func TestSearchAll_ProviderSubset(t *testing.T) {
	t.Parallel()

	steam := &fakeProvider{name: "steam"}
	csfloat := &fakeProvider{name: "csfloat"}
	dmarket := &fakeProvider{name: "dmarket"}

	a := aggregator.New(
		[]market.Provider{steam, csfloat, dmarket},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	tests := []struct {
		name          string
		subset        []string
		wantProviders []string
	}{
		{
			name:          "subset selects named providers",
			subset:        []string{"csfloat", "dmarket"},
			wantProviders: []string{"csfloat", "dmarket"},
		},
		{
			name:          "names are case-insensitive",
			subset:        []string{"Steam"},
			wantProviders: []string{"steam"},
		},
		{
			name:          "unknown names broaden to all",
			subset:        []string{"buff163"},
			wantProviders: []string{"steam", "csfloat", "dmarket"},
		},
		{
			name:          "empty subset means all",
			subset:        nil,
			wantProviders: []string{"steam", "csfloat", "dmarket"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.SearchAll(context.Background(), market.SearchQuery{
				Text:      "awp",
				Providers: tt.subset,
			})

			var got []string
			for _, e := range res.Executions {
				got = append(got, e.Provider)
			}
			assert.Equal(t, tt.wantProviders, got)
		})
	}
}

func TestSearchAll_FiltersAndCaps(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "csfloat", results: []market.MarketResult{
				{Market: "csfloat", Name: "AK StatTrak", Price: ptr(30.0), Currency: "USD", StatTrak: ptr(true)},
				{Market: "csfloat", Name: "AK plain cheap", Price: ptr(20.0), Currency: "USD", StatTrak: ptr(false)},
				{Market: "csfloat", Name: "AK plain mid", Price: ptr(25.0), Currency: "USD", StatTrak: ptr(false)},
				{Market: "csfloat", Name: "AK plain dear", Price: ptr(200.0), Currency: "USD", StatTrak: ptr(false)},
			}},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{
		Text:       "ak",
		StatTrak:   ptr(false),
		PriceMax:   ptr(100.0),
		MaxResults: 1,
	})

	// StatTrak and over-budget rows are filtered, then the per-provider cap
	// applies to what remains.
	require.Len(t, res.Results, 1)
	assert.Equal(t, "AK plain cheap", res.Results[0].Name)
}

func TestSearchAll_PaintSeedsEnforcedPostMerge(t *testing.T) {
	t.Parallel()

	// A provider that reports seeds but does not filter on them (free-text
	// markets) must still have mismatches removed before the merge.
	seed := func(v int) *int { return &v }
	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "dmarket", results: []market.MarketResult{
				{Market: "dmarket", Name: "AWP wanted", Price: ptr(50.0), Currency: "USD", PaintSeed: seed(412)},
				{Market: "dmarket", Name: "AWP other seed", Price: ptr(40.0), Currency: "USD", PaintSeed: seed(999)},
				{Market: "dmarket", Name: "AWP unknown seed", Price: ptr(45.0), Currency: "USD"},
			}},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{
		Text:       "awp",
		PaintSeeds: []int{412},
	})

	require.Len(t, res.Results, 2)
	names := []string{res.Results[0].Name, res.Results[1].Name}
	assert.Contains(t, names, "AWP wanted")
	assert.Contains(t, names, "AWP unknown seed")
	assert.NotContains(t, names, "AWP other seed")
}

func TestSearchAll_SortStrategyFromQuery(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam", results: []market.MarketResult{
				{Market: "steam", Name: "B", Price: ptr(10.0), Currency: "USD"},
				{Market: "steam", Name: "A", Price: ptr(20.0), Currency: "USD"},
			}},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	res := a.SearchAll(context.Background(), market.SearchQuery{
		Text:   "x",
		SortBy: market.SortByName,
	})

	require.Len(t, res.Results, 2)
	assert.Equal(t, "A", res.Results[0].Name)
	assert.Equal(t, "B", res.Results[1].Name)
}

func TestSearchAll_ProvidersRunConcurrently(t *testing.T) {
	t.Parallel()

	delay := 80 * time.Millisecond
	providers := make([]market.Provider, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		providers[i] = &fakeProvider{name: name, delay: delay}
	}

	a := aggregator.New(providers, newRegistry(),
		aggregator.WithLogger(logger.Quiet()))

	start := time.Now()
	a.SearchAll(context.Background(), market.SearchQuery{Text: "x"})
	elapsed := time.Since(start)

	// Serial execution would take 4x the delay.
	assert.Less(t, elapsed, 3*delay)
}

func TestProviders(t *testing.T) {
	t.Parallel()

	a := aggregator.New(
		[]market.Provider{
			&fakeProvider{name: "steam"},
			&fakeProvider{name: "csfloat"},
		},
		newRegistry(),
		aggregator.WithLogger(logger.Quiet()),
	)

	assert.Equal(t, []string{"steam", "csfloat"}, a.Providers())
}
