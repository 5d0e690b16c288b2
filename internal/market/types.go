// Package market defines the core domain types shared by the aggregation
// engine and the marketplace adapters.
package market

import (
	"slices"
	"time"
)

// Wear represents one of the five cosmetic condition grades.
type Wear string

// Wear constants, ordered best to worst.
const (
	WearFactoryNew    Wear = "Factory New"
	WearMinimalWear   Wear = "Minimal Wear"
	WearFieldTested   Wear = "Field-Tested"
	WearWellWorn      Wear = "Well-Worn"
	WearBattleScarred Wear = "Battle-Scarred"
)

// Wears lists all wear tiers in order.
var Wears = []Wear{
	WearFactoryNew,
	WearMinimalWear,
	WearFieldTested,
	WearWellWorn,
	WearBattleScarred,
}

// ParseWear maps a wear label to its canonical tier. Matching is
// case-insensitive and tolerant of the short forms marketplaces use
// ("fn", "mw", "ft", "ww", "bs").
func ParseWear(s string) (Wear, bool) {
	switch normalizeWear(s) {
	case "factorynew", "fn":
		return WearFactoryNew, true
	case "minimalwear", "mw":
		return WearMinimalWear, true
	case "fieldtested", "ft":
		return WearFieldTested, true
	case "wellworn", "ww":
		return WearWellWorn, true
	case "battlescarred", "bs":
		return WearBattleScarred, true
	}
	return "", false
}

func normalizeWear(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		}
	}
	return string(out)
}

// SortBy selects the ranking strategy for merged results.
type SortBy string

// Sort strategy constants.
const (
	SortByPrice    SortBy = "price"
	SortByDiscount SortBy = "discount"
	SortByMarket   SortBy = "market"
	SortByName     SortBy = "name"
)

// SearchQuery describes one aggregation request. It is immutable once
// constructed and passed by value through the pipeline.
type SearchQuery struct {
	// Text is the free-text search term. Must be non-empty by the time
	// it reaches a provider.
	Text string `json:"text"`

	// Wear restricts results to a single wear tier when set.
	Wear *Wear `json:"wear,omitempty"`

	// StatTrak and Souvenir are tri-state: nil means don't care,
	// true/false means the result must match.
	StatTrak *bool `json:"stattrak,omitempty"`
	Souvenir *bool `json:"souvenir,omitempty"`

	// FloatMin and FloatMax bound the float value of returned listings.
	// Pushed down to providers that support it.
	FloatMin *float64 `json:"float_min,omitempty"`
	FloatMax *float64 `json:"float_max,omitempty"`

	// PriceMin and PriceMax bound the listing price. Applied by the
	// aggregator; a result without a numeric price fails any bound.
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`

	// PaintSeeds restricts results to the given pattern IDs. Pushed down
	// to providers that support it.
	PaintSeeds []int `json:"paint_seeds,omitempty"`

	// MaxResults caps results per provider. Zero means provider default.
	MaxResults int `json:"max_results,omitempty"`

	// Currency and Country are hints for providers that localize prices.
	Currency string `json:"currency,omitempty"`
	Country  string `json:"country,omitempty"`

	// Providers selects a subset of registered providers by name
	// (case-insensitive). Empty means all.
	Providers []string `json:"providers,omitempty"`

	// SortBy selects the ranking strategy. Empty means SortByPrice.
	SortBy SortBy `json:"sort_by,omitempty"`
}

// MarketResult is one normalized listing from one marketplace. Duplicates
// across markets are expected and preserved; there is no identity beyond
// (Market, Name).
type MarketResult struct {
	Market string `json:"market"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`

	// Price is the numeric listing price; nil when the marketplace only
	// reports a display string. Currency is always set, even when Price
	// is nil.
	Price     *float64 `json:"price,omitempty"`
	Currency  string   `json:"currency"`
	PriceText string   `json:"price_text,omitempty"`

	Availability string `json:"availability,omitempty"`

	Wear       *Wear    `json:"wear,omitempty"`
	StatTrak   *bool    `json:"stattrak,omitempty"`
	Souvenir   *bool    `json:"souvenir,omitempty"`
	FloatValue *float64 `json:"float_value,omitempty"`
	PaintSeed  *int     `json:"paint_seed,omitempty"`

	// Median7d and Median30d are trailing reference prices used for
	// discount ranking.
	Median7d  *float64 `json:"median_7d,omitempty"`
	Median30d *float64 `json:"median_30d,omitempty"`
}

// Discount returns the percentage difference between the listing price and
// its 30-day median. The second return is false when either side is missing
// or the median is zero.
func (r *MarketResult) Discount() (float64, bool) {
	if r.Price == nil || r.Median30d == nil || *r.Median30d == 0 {
		return 0, false
	}
	return (*r.Median30d - *r.Price) / *r.Median30d * 100, true
}

// ProviderExecution records one provider's participation in an aggregation
// run. It is observability metadata and never influences ranking.
type ProviderExecution struct {
	Provider string         `json:"provider"`
	Results  []MarketResult `json:"results"`
	Duration time.Duration  `json:"duration"`
	TimedOut bool           `json:"timed_out"`
	Error    string         `json:"error,omitempty"`
}

// AggregatedSearchResult is the merged, sorted result list plus the
// per-provider execution report in provider-iteration order.
type AggregatedSearchResult struct {
	Results    []MarketResult      `json:"results"`
	Executions []ProviderExecution `json:"executions"`
}

// Matches reports whether a result satisfies the query predicates regardless
// of whether the provider pushed them down: tri-state StatTrak/Souvenir,
// exact wear, the price range, float bounds, and paint seeds. Tri-state flags
// reject only when both sides are defined and disagree. A result with no
// price cannot satisfy a price bound.
func (q SearchQuery) Matches(r *MarketResult) bool {
	if q.StatTrak != nil && r.StatTrak != nil && *q.StatTrak != *r.StatTrak {
		return false
	}
	if q.Souvenir != nil && r.Souvenir != nil && *q.Souvenir != *r.Souvenir {
		return false
	}
	if q.Wear != nil && r.Wear != nil && *q.Wear != *r.Wear {
		return false
	}
	if !q.matchesPrice(r) {
		return false
	}
	if q.FloatMin != nil || q.FloatMax != nil {
		if !q.matchesFloat(r) {
			return false
		}
	}
	if len(q.PaintSeeds) > 0 && r.PaintSeed != nil && !slices.Contains(q.PaintSeeds, *r.PaintSeed) {
		// A result with a known seed outside the requested set is rejected;
		// providers that don't report seeds stay permissive, like floats.
		return false
	}
	return true
}

func (q SearchQuery) matchesPrice(r *MarketResult) bool {
	if q.PriceMin == nil && q.PriceMax == nil {
		return true
	}
	if r.Price == nil {
		return false
	}
	if q.PriceMin != nil && *r.Price < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && *r.Price > *q.PriceMax {
		return false
	}
	return true
}

func (q SearchQuery) matchesFloat(r *MarketResult) bool {
	if r.FloatValue == nil {
		// Float bounds are pushed down where supported; a result without
		// a float value from a provider that doesn't report them is kept.
		return true
	}
	if q.FloatMin != nil && *r.FloatValue < *q.FloatMin {
		return false
	}
	if q.FloatMax != nil && *r.FloatValue > *q.FloatMax {
		return false
	}
	return true
}
