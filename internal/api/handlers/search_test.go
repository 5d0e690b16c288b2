package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skindex/skindex/internal/api/handlers"
	"github.com/skindex/skindex/internal/market"
)

// fakeSearcher records the last query and returns a canned result.
type fakeSearcher struct {
	lastQuery market.SearchQuery
	result    market.AggregatedSearchResult
	providers []string
}

func (f *fakeSearcher) SearchAll(_ context.Context, query market.SearchQuery) market.AggregatedSearchResult {
	f.lastQuery = query
	return f.result
}

func (f *fakeSearcher) Providers() []string {
	return f.providers
}

func newSearchAPI(t *testing.T, fs *fakeSearcher) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(fs, "USD", "US"))
	return api
}

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	price := 92.50
	fs := &fakeSearcher{
		result: market.AggregatedSearchResult{
			Results: []market.MarketResult{{
				Market:   "steam",
				Name:     "AWP | Asiimov (Field-Tested)",
				Price:    &price,
				Currency: "USD",
			}},
			Executions: []market.ProviderExecution{
				{Provider: "steam"},
			},
		},
	}
	api := newSearchAPI(t, fs)

	resp := api.Post("/api/v1/search", map[string]any{
		"text": "awp asiimov",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "AWP | Asiimov (Field-Tested)")
	assert.Contains(t, resp.Body.String(), `"executions"`)
}

func TestSearch_QueryMapping(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{}
	api := newSearchAPI(t, fs)

	resp := api.Post("/api/v1/search", map[string]any{
		"text":      "ak-47 redline",
		"wear":      "ft",
		"stattrak":  true,
		"float_min": 0.15,
		"price_max": 50.0,
		"providers": []string{"csfloat"},
		"sort_by":   "discount",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	q := fs.lastQuery
	assert.Equal(t, "ak-47 redline", q.Text)
	require.NotNil(t, q.Wear)
	assert.Equal(t, market.WearFieldTested, *q.Wear)
	require.NotNil(t, q.StatTrak)
	assert.True(t, *q.StatTrak)
	assert.Nil(t, q.Souvenir)
	require.NotNil(t, q.FloatMin)
	assert.InDelta(t, 0.15, *q.FloatMin, 1e-9)
	require.NotNil(t, q.PriceMax)
	assert.InDelta(t, 50.0, *q.PriceMax, 1e-9)
	assert.Equal(t, []string{"csfloat"}, q.Providers)
	assert.Equal(t, market.SortByDiscount, q.SortBy)
}

func TestSearch_DefaultsApplied(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{}
	api := newSearchAPI(t, fs)

	resp := api.Post("/api/v1/search", map[string]any{
		"text": "awp asiimov",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, "USD", fs.lastQuery.Currency)
	assert.Equal(t, "US", fs.lastQuery.Country)
}

func TestSearch_ExplicitCurrencyKept(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{}
	api := newSearchAPI(t, fs)

	resp := api.Post("/api/v1/search", map[string]any{
		"text":     "awp asiimov",
		"currency": "EUR",
		"country":  "DE",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, "EUR", fs.lastQuery.Currency)
	assert.Equal(t, "DE", fs.lastQuery.Country)
}

func TestSearch_UnknownWearRejected(t *testing.T) {
	t.Parallel()

	api := newSearchAPI(t, &fakeSearcher{})

	resp := api.Post("/api/v1/search", map[string]any{
		"text": "awp asiimov",
		"wear": "pristine",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "unknown wear tier")
}

func TestSearch_MissingTextRejected(t *testing.T) {
	t.Parallel()

	api := newSearchAPI(t, &fakeSearcher{})

	resp := api.Post("/api/v1/search", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestListProviders(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{providers: []string{"steam", "csfloat", "dmarket"}}
	api := newSearchAPI(t, fs)

	resp := api.Get("/api/v1/providers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "steam")
	assert.Contains(t, resp.Body.String(), "csfloat")
	assert.Contains(t, resp.Body.String(), "dmarket")
}
