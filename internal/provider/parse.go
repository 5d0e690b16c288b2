// Package provider implements the marketplace adapters. Each adapter wraps
// one upstream HTTP contract, owns its raw response types, and converts
// results to the normalized market.MarketResult shape so the aggregator
// never sees upstream schemas.
package provider

import (
	"slices"
	"strconv"
	"strings"

	"github.com/skindex/skindex/internal/market"
)

const statTrakMarker = "StatTrak™"

// inferAttributes reads the wear tier and StatTrak/Souvenir flags back out
// of an exact catalog name. Marketplaces that index by exact name encode all
// three in the name itself, so for those results the flags are always known
// (never tri-state nil).
func inferAttributes(name string) (wear *market.Wear, statTrak, souvenir *bool) {
	st := strings.Contains(name, statTrakMarker)
	sv := strings.HasPrefix(name, "Souvenir ")

	if open := strings.LastIndex(name, "("); open != -1 && strings.HasSuffix(name, ")") {
		if w, ok := market.ParseWear(name[open+1 : len(name)-1]); ok {
			wear = &w
		}
	}
	return wear, &st, &sv
}

// parsePriceText extracts a numeric amount from a display price like
// "$1,234.56", "2 350,44 pуб.", or "1.234,56€". The last '.'
// or ',' followed by at most two digits is treated as the decimal separator;
// everything else non-numeric is dropped. Returns false when no digits
// survive.
func parsePriceText(s string) (float64, bool) {
	lastSep := -1
	digits := 0
	var cleaned []rune
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			cleaned = append(cleaned, r)
			digits++
		case r == '.' || r == ',':
			cleaned = append(cleaned, r)
			lastSep = len(cleaned) - 1
		}
	}
	if digits == 0 {
		return 0, false
	}

	var intPart, fracPart []rune
	if lastSep >= 0 && len(cleaned)-lastSep-1 <= 2 {
		for _, r := range cleaned[lastSep+1:] {
			if r >= '0' && r <= '9' {
				fracPart = append(fracPart, r)
			}
		}
		cleaned = cleaned[:lastSep]
	}
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			intPart = append(intPart, r)
		}
	}

	value := 0.0
	for _, r := range intPart {
		value = value*10 + float64(r-'0')
	}
	frac := 0.0
	scale := 1.0
	for _, r := range fracPart {
		scale /= 10
		frac += float64(r-'0') * scale
	}
	return value + frac, true
}

// cacheKey builds the shared-cache key for one provider call. Every
// predicate a provider pushes down or filters on before caching must be part
// of the key, or queries differing only in that predicate would share
// entries. Paint seeds are sorted so key equality does not depend on the
// order the caller listed them in.
func cacheKey(providerName string, query market.SearchQuery) string {
	var b strings.Builder
	b.WriteString(providerName)
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(query.Text)))
	b.WriteByte('|')
	if query.Wear != nil {
		b.WriteString(string(*query.Wear))
	}
	b.WriteByte('|')
	b.WriteString(triState(query.StatTrak))
	b.WriteByte('|')
	b.WriteString(triState(query.Souvenir))
	b.WriteByte('|')
	writeBound(&b, query.FloatMin)
	b.WriteByte('|')
	writeBound(&b, query.FloatMax)
	b.WriteByte('|')
	seeds := slices.Clone(query.PaintSeeds)
	slices.Sort(seeds)
	for i, s := range seeds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	b.WriteByte('|')
	b.WriteString(query.Currency)
	b.WriteByte('|')
	if query.MaxResults > 0 {
		b.WriteString(strconv.Itoa(query.MaxResults))
	}
	return b.String()
}

func writeBound(b *strings.Builder, v *float64) {
	if v != nil {
		b.WriteString(strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func triState(v *bool) string {
	switch {
	case v == nil:
		return "any"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
