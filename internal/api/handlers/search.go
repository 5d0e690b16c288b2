package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/skindex/skindex/internal/market"
)

// Searcher is the aggregation capability the API consumes.
type Searcher interface {
	SearchAll(ctx context.Context, query market.SearchQuery) market.AggregatedSearchResult
	Providers() []string
}

// SearchHandler handles aggregated search requests.
type SearchHandler struct {
	searcher        Searcher
	defaultCurrency string
	defaultCountry  string
}

// NewSearchHandler creates a new SearchHandler. The currency and country
// defaults are applied to queries that carry no hint of their own.
func NewSearchHandler(s Searcher, defaultCurrency, defaultCountry string) *SearchHandler {
	return &SearchHandler{
		searcher:        s,
		defaultCurrency: defaultCurrency,
		defaultCountry:  defaultCountry,
	}
}

// SearchInput is the request body for the search endpoint.
type SearchInput struct {
	Body struct {
		Text       string   `json:"text" minLength:"1" doc:"Free-text item query" example:"awp printstream"`
		Wear       string   `json:"wear,omitempty" doc:"Wear tier filter" example:"Field-Tested"`
		StatTrak   *bool    `json:"stattrak,omitempty" doc:"StatTrak filter; omit for both"`
		Souvenir   *bool    `json:"souvenir,omitempty" doc:"Souvenir filter; omit for both"`
		FloatMin   *float64 `json:"float_min,omitempty" doc:"Minimum float value"`
		FloatMax   *float64 `json:"float_max,omitempty" doc:"Maximum float value"`
		PriceMin   *float64 `json:"price_min,omitempty" doc:"Minimum listing price"`
		PriceMax   *float64 `json:"price_max,omitempty" doc:"Maximum listing price"`
		PaintSeeds []int    `json:"paint_seeds,omitempty" doc:"Pattern IDs to keep"`
		MaxResults int      `json:"max_results,omitempty" minimum:"0" doc:"Per-provider result cap"`
		Currency   string   `json:"currency,omitempty" doc:"Currency hint" example:"EUR"`
		Country    string   `json:"country,omitempty" doc:"Country hint" example:"DE"`
		Providers  []string `json:"providers,omitempty" doc:"Provider subset; unknown names broaden to all"`
		SortBy     string   `json:"sort_by,omitempty" enum:"price,discount,market,name" doc:"Sort strategy (default price)"`
	}
}

// SearchOutput is the response body for the search endpoint.
type SearchOutput struct {
	Body struct {
		Results    []market.MarketResult      `json:"results" doc:"Merged, sorted listings"`
		Executions []market.ProviderExecution `json:"executions" doc:"Per-provider execution report"`
	}
}

// Search runs one aggregation and returns the merged results together with
// the per-provider report, so the caller can tell "no stock" from "every
// provider timed out".
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	query := market.SearchQuery{
		Text:       input.Body.Text,
		StatTrak:   input.Body.StatTrak,
		Souvenir:   input.Body.Souvenir,
		FloatMin:   input.Body.FloatMin,
		FloatMax:   input.Body.FloatMax,
		PriceMin:   input.Body.PriceMin,
		PriceMax:   input.Body.PriceMax,
		PaintSeeds: input.Body.PaintSeeds,
		MaxResults: input.Body.MaxResults,
		Currency:   input.Body.Currency,
		Country:    input.Body.Country,
		Providers:  input.Body.Providers,
		SortBy:     market.SortBy(input.Body.SortBy),
	}
	if input.Body.Wear != "" {
		w, ok := market.ParseWear(input.Body.Wear)
		if !ok {
			return nil, huma.Error422UnprocessableEntity("unknown wear tier: " + input.Body.Wear)
		}
		query.Wear = &w
	}
	if query.Currency == "" {
		query.Currency = h.defaultCurrency
	}
	if query.Country == "" {
		query.Country = h.defaultCountry
	}

	res := h.searcher.SearchAll(ctx, query)

	out := &SearchOutput{}
	out.Body.Results = res.Results
	out.Body.Executions = res.Executions
	return out, nil
}

// ProvidersOutput lists the registered providers.
type ProvidersOutput struct {
	Body struct {
		Providers []string `json:"providers" doc:"Registered provider names in iteration order"`
	}
}

// Providers returns the registered provider names.
func (h *SearchHandler) Providers(_ context.Context, _ *struct{}) (*ProvidersOutput, error) {
	out := &ProvidersOutput{}
	out.Body.Providers = h.searcher.Providers()
	return out, nil
}

// RegisterSearchRoutes registers search endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search all marketplaces",
		Description: "Fans the query out to every selected provider and returns the merged, ranked results.",
		Tags:        []string{"search"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.Search)

	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List registered providers",
		Tags:        []string{"search"},
	}, h.Providers)
}
