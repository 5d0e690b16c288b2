package market

import (
	"math"
	"sort"
	"strings"
)

// Sort orders results in place by the given strategy. Every strategy falls
// through to the same tie-break chain, so the order is a total order:
// re-sorting sorted input is a no-op and any input permutation sorts to the
// same output.
//
// Chain: price ascending (missing price sorts last), then discount descending
// (missing discount sorts last), then name ascending.
func Sort(results []MarketResult, by SortBy) {
	var less func(a, b *MarketResult) bool
	switch by {
	case SortByDiscount:
		less = func(a, b *MarketResult) bool {
			if d := sortDiscount(a) - sortDiscount(b); d != 0 {
				return d > 0
			}
			return tieBreak(a, b)
		}
	case SortByMarket:
		less = func(a, b *MarketResult) bool {
			if c := strings.Compare(a.Market, b.Market); c != 0 {
				return c < 0
			}
			return tieBreak(a, b)
		}
	case SortByName:
		less = func(a, b *MarketResult) bool {
			if c := strings.Compare(a.Name, b.Name); c != 0 {
				return c < 0
			}
			return tieBreak(a, b)
		}
	default: // SortByPrice
		less = tieBreak
	}

	sort.SliceStable(results, func(i, j int) bool {
		return less(&results[i], &results[j])
	})
}

// tieBreak is the shared price → discount → name comparison.
func tieBreak(a, b *MarketResult) bool {
	pa, pb := sortPrice(a), sortPrice(b)
	if pa != pb {
		return pa < pb
	}
	da, db := sortDiscount(a), sortDiscount(b)
	if da != db {
		return da > db
	}
	return a.Name < b.Name
}

func sortPrice(r *MarketResult) float64 {
	if r.Price == nil {
		return math.Inf(1)
	}
	return *r.Price
}

func sortDiscount(r *MarketResult) float64 {
	d, ok := r.Discount()
	if !ok {
		return math.Inf(-1)
	}
	return d
}
