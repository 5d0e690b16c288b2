package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skindex/skindex/internal/cache"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/provider"
)

func ptr[T any](v T) *T { return &v }

func newResultCache() *cache.Cache[string, []market.MarketResult] {
	return cache.New[string, []market.MarketResult](time.Minute)
}

// steamStub serves the price overview endpoint for a fixed set of known
// names; everything else is a 500, which Steam uses for unknown names.
func steamStub(t *testing.T, known map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/market/priceoverview/", r.URL.Path)
		require.Equal(t, "730", r.URL.Query().Get("appid"))
		hits.Add(1)

		body, ok := known[r.URL.Query().Get("market_hash_name")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSteamSearch(t *testing.T) {
	t.Parallel()

	srv, _ := steamStub(t, map[string]string{
		"AWP | Asiimov (Field-Tested)": `{
			"success": true,
			"lowest_price": "$92.50",
			"volume": "181",
			"median_price": "$94.06"
		}`,
	})

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))
	assert.Equal(t, "steam", p.Name())

	results, err := p.Search(context.Background(), market.SearchQuery{
		Text: "awp asiimov",
		Wear: ptr(market.WearFieldTested),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "steam", r.Market)
	assert.Equal(t, "AWP | Asiimov (Field-Tested)", r.Name)
	require.NotNil(t, r.Price)
	assert.InDelta(t, 92.50, *r.Price, 1e-9)
	assert.Equal(t, "$92.50", r.PriceText)
	assert.Equal(t, "USD", r.Currency)
	require.NotNil(t, r.Median7d)
	assert.InDelta(t, 94.06, *r.Median7d, 1e-9)
	assert.Equal(t, "181 sold in 24h", r.Availability)
	require.NotNil(t, r.Wear)
	assert.Equal(t, market.WearFieldTested, *r.Wear)
	require.NotNil(t, r.StatTrak)
	assert.False(t, *r.StatTrak)
	assert.Contains(t, r.URL, "/market/listings/730/")
}

func TestSteamSearch_UnknownNamesAreMisses(t *testing.T) {
	t.Parallel()

	// Nothing is known: every candidate 500s, yet the search succeeds with
	// zero results.
	srv, _ := steamStub(t, nil)

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	results, err := p.Search(context.Background(), market.SearchQuery{Text: "no such skin"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSteamSearch_UnsuccessfulOverviewSkipped(t *testing.T) {
	t.Parallel()

	srv, _ := steamStub(t, map[string]string{
		"AWP | Asiimov (Field-Tested)": `{"success": false}`,
		"AWP | Asiimov (Well-Worn)":    `{"success": true, "lowest_price": "$70.00"}`,
	})

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	results, err := p.Search(context.Background(), market.SearchQuery{Text: "awp asiimov"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AWP | Asiimov (Well-Worn)", results[0].Name)
}

func TestSteamSearch_CachesResponses(t *testing.T) {
	t.Parallel()

	srv, hits := steamStub(t, map[string]string{
		"AWP | Asiimov (Field-Tested)": `{"success": true, "lowest_price": "$92.50"}`,
	})

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))
	query := market.SearchQuery{Text: "awp asiimov", Wear: ptr(market.WearFieldTested)}

	first, err := p.Search(context.Background(), query)
	require.NoError(t, err)
	upstreamCalls := hits.Load()
	require.Positive(t, upstreamCalls)

	second, err := p.Search(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, upstreamCalls, hits.Load(), "second search must be served from cache")
}

func TestSteamSearch_RespectsMaxResults(t *testing.T) {
	t.Parallel()

	srv, _ := steamStub(t, map[string]string{
		"AWP | Asiimov (Factory New)":  `{"success": true, "lowest_price": "$200.00"}`,
		"AWP | Asiimov (Minimal Wear)": `{"success": true, "lowest_price": "$120.00"}`,
		"AWP | Asiimov (Field-Tested)": `{"success": true, "lowest_price": "$92.50"}`,
	})

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	results, err := p.Search(context.Background(), market.SearchQuery{
		Text:       "awp asiimov",
		StatTrak:   ptr(false),
		Souvenir:   ptr(false),
		MaxResults: 2,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSteamSearch_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv, _ := steamStub(t, nil)

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, market.SearchQuery{Text: "awp asiimov"})
	require.Error(t, err)
}

func TestSteamSearch_UpstreamErrorPropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	_, err := p.Search(context.Background(), market.SearchQuery{Text: "awp asiimov"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSteamSearch_EmptyCandidatesNoCall(t *testing.T) {
	t.Parallel()

	srv, hits := steamStub(t, nil)

	p := provider.NewSteam(newResultCache(), provider.WithSteamBaseURL(srv.URL))

	results, err := p.Search(context.Background(), market.SearchQuery{Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, hits.Load())
}
