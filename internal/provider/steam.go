package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/skindex/skindex/internal/cache"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/metrics"
	"github.com/skindex/skindex/internal/names"
)

const (
	steamName            = "steam"
	defaultSteamBaseURL  = "https://steamcommunity.com"
	steamAppID           = "730"
	defaultSteamLimit    = 10
	maxSteamCandidates   = 30
	defaultSteamCurrency = "USD"
)

// steamCurrencyCodes maps ISO currency hints to the numeric codes the price
// overview endpoint expects. Unknown hints fall back to USD.
var steamCurrencyCodes = map[string]string{
	"USD": "1", "GBP": "2", "EUR": "3", "CHF": "4", "RUB": "5",
	"PLN": "6", "BRL": "7", "JPY": "8", "NOK": "9", "CNY": "23",
	"AUD": "21", "CAD": "20",
}

// SteamProvider fetches prices from the Steam Community Market. Steam has no
// free-text search worth using, so every lookup goes through the exact-name
// price overview endpoint, one call per generated candidate name.
type SteamProvider struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache[string, []market.MarketResult]
}

// SteamOption configures the SteamProvider.
type SteamOption func(*SteamProvider)

// WithSteamBaseURL overrides the default endpoint, mainly for tests.
func WithSteamBaseURL(u string) SteamOption {
	return func(p *SteamProvider) {
		p.baseURL = u
	}
}

// WithSteamHTTPClient overrides the default HTTP client.
func WithSteamHTTPClient(hc *http.Client) SteamOption {
	return func(p *SteamProvider) {
		p.client = hc
	}
}

// NewSteam creates a Steam Community Market provider sharing the given
// result cache.
func NewSteam(c *cache.Cache[string, []market.MarketResult], opts ...SteamOption) *SteamProvider {
	p := &SteamProvider{
		baseURL: defaultSteamBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   c,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements market.Provider.
func (p *SteamProvider) Name() string {
	return steamName
}

// priceOverviewResponse is the raw price overview payload.
type priceOverviewResponse struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	Volume      string `json:"volume"`
	MedianPrice string `json:"median_price"`
}

// Search implements market.Provider. Candidate names that Steam does not
// know simply produce no result; only transport-level failures are errors.
func (p *SteamProvider) Search(ctx context.Context, query market.SearchQuery) ([]market.MarketResult, error) {
	key := cacheKey(steamName, query)
	if cached, ok := p.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(steamName).Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(steamName).Inc()

	candidates := names.Candidates(query.Text, query.Wear, query.StatTrak, query.Souvenir)
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxSteamCandidates {
		candidates = candidates[:maxSteamCandidates]
	}

	limit := query.MaxResults
	if limit <= 0 {
		limit = defaultSteamLimit
	}
	currency := query.Currency
	if currency == "" {
		currency = defaultSteamCurrency
	}

	results := make([]market.MarketResult, 0, limit)
	for _, name := range candidates {
		if len(results) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		overview, err := p.fetchOverview(ctx, name, currency)
		if err != nil {
			return nil, fmt.Errorf("steam overview for %q: %w", name, err)
		}
		if overview == nil || !overview.Success || overview.LowestPrice == "" {
			continue
		}
		results = append(results, p.toResult(name, currency, overview))
	}

	p.cache.Set(key, results)
	return results, nil
}

// fetchOverview returns nil without error on 404/500, which Steam uses for
// unknown names; those are misses, not failures.
func (p *SteamProvider) fetchOverview(ctx context.Context, name, currency string) (*priceOverviewResponse, error) {
	code, ok := steamCurrencyCodes[currency]
	if !ok {
		code = steamCurrencyCodes[defaultSteamCurrency]
	}

	q := url.Values{}
	q.Set("appid", steamAppID)
	q.Set("currency", code)
	q.Set("market_hash_name", name)
	u := p.baseURL + "/market/priceoverview/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("steam API error %d: %s", resp.StatusCode, body)
	}

	var overview priceOverviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, fmt.Errorf("decoding overview: %w", err)
	}
	return &overview, nil
}

func (p *SteamProvider) toResult(name, currency string, overview *priceOverviewResponse) market.MarketResult {
	wear, statTrak, souvenir := inferAttributes(name)

	r := market.MarketResult{
		Market:    steamName,
		Name:      name,
		URL:       p.baseURL + "/market/listings/" + steamAppID + "/" + url.PathEscape(name),
		Currency:  currency,
		PriceText: overview.LowestPrice,
		Wear:      wear,
		StatTrak:  statTrak,
		Souvenir:  souvenir,
	}
	if v, ok := parsePriceText(overview.LowestPrice); ok {
		r.Price = &v
	}
	if v, ok := parsePriceText(overview.MedianPrice); ok {
		r.Median7d = &v
	}
	if overview.Volume != "" {
		r.Availability = overview.Volume + " sold in 24h"
	}
	return r
}
