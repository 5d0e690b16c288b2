package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skindex/skindex/internal/cache"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/metrics"
)

const (
	dmarketName           = "dmarket"
	defaultDMarketBaseURL = "https://api.dmarket.com"
	dmarketGameID         = "a8db" // CS2
	defaultDMarketLimit   = 20
)

// DMarketProvider fetches listings from the DMarket exchange API, which
// supports free-text title search directly, so no candidate expansion is
// needed. DMarket's price payloads come in several shapes depending on
// endpoint version; all of that probing is contained in this file and never
// leaks past the MarketResult conversion.
type DMarketProvider struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache[string, []market.MarketResult]
}

// DMarketOption configures the DMarketProvider.
type DMarketOption func(*DMarketProvider)

// WithDMarketBaseURL overrides the default endpoint, mainly for tests.
func WithDMarketBaseURL(u string) DMarketOption {
	return func(p *DMarketProvider) {
		p.baseURL = u
	}
}

// WithDMarketHTTPClient overrides the default HTTP client.
func WithDMarketHTTPClient(hc *http.Client) DMarketOption {
	return func(p *DMarketProvider) {
		p.client = hc
	}
}

// NewDMarket creates a DMarket provider sharing the given result cache.
func NewDMarket(c *cache.Cache[string, []market.MarketResult], opts ...DMarketOption) *DMarketProvider {
	p := &DMarketProvider{
		baseURL: defaultDMarketBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   c,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements market.Provider.
func (p *DMarketProvider) Name() string {
	return dmarketName
}

// Raw DMarket API shapes. Price and SuggestedPrice are deliberately untyped:
// the API returns either {"USD": "1234"} (cents as string) or
// {"amount": 1234, "currency": "USD"} depending on listing age.
type dmarketItem struct {
	ItemID         string         `json:"itemId"`
	Title          string         `json:"title"`
	Amount         int            `json:"amount"`
	Price          map[string]any `json:"price"`
	SuggestedPrice map[string]any `json:"suggestedPrice"`
	Extra          dmarketExtra   `json:"extra"`
}

type dmarketExtra struct {
	FloatValue *float64 `json:"floatValue,omitempty"`
	PaintSeed  *int     `json:"paintSeed,omitempty"`
}

type dmarketResponse struct {
	Objects []dmarketItem `json:"objects"`
}

// Search implements market.Provider.
func (p *DMarketProvider) Search(ctx context.Context, query market.SearchQuery) ([]market.MarketResult, error) {
	key := cacheKey(dmarketName, query)
	if cached, ok := p.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(dmarketName).Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(dmarketName).Inc()

	limit := query.MaxResults
	if limit <= 0 {
		limit = defaultDMarketLimit
	}
	currency := query.Currency
	if currency == "" {
		currency = "USD"
	}

	q := url.Values{}
	q.Set("gameId", dmarketGameID)
	q.Set("title", query.Text)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("currency", currency)
	q.Set("orderBy", "price")
	q.Set("orderDir", "asc")
	u := p.baseURL + "/exchange/v1/market/items?" + q.Encode()

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

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dmarket API error %d: %s", resp.StatusCode, body)
	}

	var payload dmarketResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	results := make([]market.MarketResult, 0, len(payload.Objects))
	for i := range payload.Objects {
		results = append(results, p.toResult(&payload.Objects[i], currency))
	}

	p.cache.Set(key, results)
	return results, nil
}

func (p *DMarketProvider) toResult(item *dmarketItem, currency string) market.MarketResult {
	wear, statTrak, souvenir := inferAttributes(item.Title)

	r := market.MarketResult{
		Market:     dmarketName,
		Name:       item.Title,
		URL:        "https://dmarket.com/ingame-items/item-list/csgo-skins?title=" + url.QueryEscape(item.Title),
		Currency:   currency,
		Wear:       wear,
		StatTrak:   statTrak,
		Souvenir:   souvenir,
		FloatValue: item.Extra.FloatValue,
		PaintSeed:  item.Extra.PaintSeed,
	}
	if item.Amount > 0 {
		r.Availability = strconv.Itoa(item.Amount) + " on sale"
	}
	if v, ok := probePrice(item.Price, currency); ok {
		r.Price = &v
		r.PriceText = fmt.Sprintf("%.2f %s", v, currency)
	}
	if v, ok := probePrice(item.SuggestedPrice, currency); ok {
		r.Median30d = &v
	}
	return r
}

// probePrice digs a price in major currency units out of whichever shape the
// API used. Known shapes: {"USD": "1234"} with cents as a string,
// {"USD": 1234} with cents as a number, and {"amount": 1234} nested cents.
func probePrice(raw map[string]any, currency string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	for _, key := range []string{currency, "USD", "amount"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if cents, ok := toCents(v); ok {
			return cents / 100, true
		}
	}
	return 0, false
}

func toCents(v any) (float64, bool) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
