package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/skindex/skindex/internal/cache"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/metrics"
	"github.com/skindex/skindex/internal/names"
)

const (
	csfloatName           = "csfloat"
	defaultCSFloatBaseURL = "https://csfloat.com"
	defaultCSFloatLimit   = 20
	maxCSFloatCandidates  = 12
)

// CSFloatProvider fetches listings from the CSFloat market API. The API
// indexes by exact market hash name, so lookups go through the candidate
// generator; float-value bounds are pushed down as query parameters, while
// paint-seed filtering happens here because the API takes only one seed per
// request.
type CSFloatProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache[string, []market.MarketResult]
}

// CSFloatOption configures the CSFloatProvider.
type CSFloatOption func(*CSFloatProvider)

// WithCSFloatBaseURL overrides the default endpoint, mainly for tests.
func WithCSFloatBaseURL(u string) CSFloatOption {
	return func(p *CSFloatProvider) {
		p.baseURL = u
	}
}

// WithCSFloatAPIKey sets the optional API key sent with each request.
func WithCSFloatAPIKey(key string) CSFloatOption {
	return func(p *CSFloatProvider) {
		p.apiKey = key
	}
}

// WithCSFloatHTTPClient overrides the default HTTP client.
func WithCSFloatHTTPClient(hc *http.Client) CSFloatOption {
	return func(p *CSFloatProvider) {
		p.client = hc
	}
}

// NewCSFloat creates a CSFloat provider sharing the given result cache.
func NewCSFloat(c *cache.Cache[string, []market.MarketResult], opts ...CSFloatOption) *CSFloatProvider {
	p := &CSFloatProvider{
		baseURL: defaultCSFloatBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   c,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements market.Provider.
func (p *CSFloatProvider) Name() string {
	return csfloatName
}

// Raw CSFloat API shapes.
type csfloatListing struct {
	ID    string      `json:"id"`
	Price int64       `json:"price"` // USD cents
	Item  csfloatItem `json:"item"`

	Reference *csfloatReference `json:"reference,omitempty"`
}

type csfloatItem struct {
	MarketHashName string   `json:"market_hash_name"`
	WearName       string   `json:"wear_name"`
	FloatValue     *float64 `json:"float_value,omitempty"`
	PaintSeed      *int     `json:"paint_seed,omitempty"`
	IsStatTrak     bool     `json:"is_stattrak"`
	IsSouvenir     bool     `json:"is_souvenir"`
}

type csfloatReference struct {
	BasePrice int64 `json:"base_price"` // USD cents, 30-day market reference
}

type csfloatResponse struct {
	Data []csfloatListing `json:"data"`
}

// Search implements market.Provider.
func (p *CSFloatProvider) Search(ctx context.Context, query market.SearchQuery) ([]market.MarketResult, error) {
	key := cacheKey(csfloatName, query)
	if cached, ok := p.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(csfloatName).Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(csfloatName).Inc()

	candidates := names.Candidates(query.Text, query.Wear, query.StatTrak, query.Souvenir)
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxCSFloatCandidates {
		candidates = candidates[:maxCSFloatCandidates]
	}

	limit := query.MaxResults
	if limit <= 0 {
		limit = defaultCSFloatLimit
	}

	results := make([]market.MarketResult, 0, limit)
	for _, name := range candidates {
		if len(results) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		listings, err := p.fetchListings(ctx, name, query, limit-len(results))
		if err != nil {
			return nil, fmt.Errorf("csfloat listings for %q: %w", name, err)
		}
		for i := range listings {
			if len(query.PaintSeeds) > 0 && !matchesSeed(&listings[i], query.PaintSeeds) {
				continue
			}
			results = append(results, p.toResult(&listings[i]))
		}
	}

	p.cache.Set(key, results)
	return results, nil
}

func matchesSeed(l *csfloatListing, seeds []int) bool {
	return l.Item.PaintSeed != nil && slices.Contains(seeds, *l.Item.PaintSeed)
}

func (p *CSFloatProvider) fetchListings(ctx context.Context, name string, query market.SearchQuery, limit int) ([]csfloatListing, error) {
	q := url.Values{}
	q.Set("market_hash_name", name)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort_by", "lowest_price")
	if query.FloatMin != nil {
		q.Set("min_float", strconv.FormatFloat(*query.FloatMin, 'f', -1, 64))
	}
	if query.FloatMax != nil {
		q.Set("max_float", strconv.FormatFloat(*query.FloatMax, 'f', -1, 64))
	}
	u := p.baseURL + "/api/v1/listings?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("csfloat API error %d: %s", resp.StatusCode, body)
	}

	var payload csfloatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}
	return payload.Data, nil
}

func (p *CSFloatProvider) toResult(l *csfloatListing) market.MarketResult {
	wear, _, _ := inferAttributes(l.Item.MarketHashName)
	if wear == nil {
		if w, ok := market.ParseWear(l.Item.WearName); ok {
			wear = &w
		}
	}
	// The item flags are authoritative over whatever the name encodes.
	st := l.Item.IsStatTrak
	sv := l.Item.IsSouvenir

	price := float64(l.Price) / 100
	r := market.MarketResult{
		Market:     csfloatName,
		Name:       l.Item.MarketHashName,
		URL:        p.baseURL + "/item/" + l.ID,
		Price:      &price,
		Currency:   "USD",
		PriceText:  fmt.Sprintf("$%.2f", price),
		Wear:       wear,
		StatTrak:   &st,
		Souvenir:   &sv,
		FloatValue: l.Item.FloatValue,
		PaintSeed:  l.Item.PaintSeed,
	}
	if l.Reference != nil && l.Reference.BasePrice > 0 {
		base := float64(l.Reference.BasePrice) / 100
		r.Median30d = &base
	}
	return r
}
