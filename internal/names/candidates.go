// Package names expands a free-text query into the exact catalog-name
// variants marketplaces with name-indexed APIs require.
package names

import (
	"regexp"
	"strings"

	"github.com/skindex/skindex/internal/market"
)

const (
	statTrakPrefix = "StatTrak™ "
	souvenirPrefix = "Souvenir "
)

// wearAnnotation matches a parenthesized wear tier already embedded in the
// query text, e.g. "awp asiimov (field-tested)".
var wearAnnotation = regexp.MustCompile(`(?i)\(\s*(factory new|minimal wear|field-tested|well-worn|battle-scarred)\s*\)`)

// Candidates returns the ordered, deduplicated set of exact catalog names for
// the given free-text query. Wear, statTrak, and souvenir pin their axis of
// the name cross product when non-nil; a nil axis expands to every option.
//
// An empty query, or one that is empty after cleanup, yields an empty slice.
// Callers must treat that as "nothing to ask this provider", not as an error.
func Candidates(text string, wear *market.Wear, statTrak, souvenir *bool) []string {
	bases := baseNames(text)
	if len(bases) == 0 {
		return nil
	}

	souvenirs := prefixAxis(souvenir, souvenirPrefix)
	statTraks := prefixAxis(statTrak, statTrakPrefix)
	wears := wearAxis(wear)

	out := make([]string, 0, len(bases)*len(souvenirs)*len(statTraks)*len(wears))
	seen := make(map[string]struct{})
	for _, base := range bases {
		for _, sv := range souvenirs {
			for _, st := range statTraks {
				for _, w := range wears {
					name := sv + st + base
					if w != "" {
						name += " (" + w + ")"
					}
					name = normalizePipes(name)
					if _, dup := seen[name]; dup {
						continue
					}
					seen[name] = struct{}{}
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// baseNames cleans the query text and returns the base catalog names to
// expand: the plain joined form plus, when the text has no pipe of its own,
// a synthesized "Weapon | Skin" split on the first word.
func baseNames(text string) []string {
	cleaned := wearAnnotation.ReplaceAllString(text, " ")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return nil
	}

	cased := make([]string, len(words))
	for i, w := range words {
		cased[i] = caseWord(w)
	}
	joined := strings.Join(cased, " ")

	if strings.Contains(joined, "|") {
		return []string{normalizePipes(joined)}
	}
	if len(cased) < 2 {
		return []string{joined}
	}
	// Catalog names commonly separate weapon from skin with a pipe, so try
	// both the plain form and a "first word | rest" split.
	piped := cased[0] + " | " + strings.Join(cased[1:], " ")
	return []string{joined, piped}
}

// caseWord title-cases a word. Short words (1-3 letters) and words carrying a
// digit or hyphen are upper-cased instead, which preserves weapon and skin
// codes like "AWP", "AK-47", and "M4A1-S".
func caseWord(w string) string {
	if len(w) <= 3 || strings.ContainsAny(w, "0123456789-") {
		return strings.ToUpper(w)
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

func prefixAxis(pinned *bool, prefix string) []string {
	if pinned == nil {
		return []string{"", prefix}
	}
	if *pinned {
		return []string{prefix}
	}
	return []string{""}
}

func wearAxis(pinned *market.Wear) []string {
	if pinned != nil {
		return []string{string(*pinned)}
	}
	axis := make([]string, 0, len(market.Wears)+1)
	axis = append(axis, "")
	for _, w := range market.Wears {
		axis = append(axis, string(w))
	}
	return axis
}

// normalizePipes collapses whatever spacing surrounds pipe separators to the
// canonical single space on each side.
func normalizePipes(s string) string {
	if !strings.Contains(s, "|") {
		return s
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " | ")
}
