package catalog

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperengineering/cellar/internal/wine"
)

var (
	grapeSeparator  = regexp.MustCompile(`(?i)[,;]|\band\b`)
	grapeAside      = regexp.MustCompile(`\s*\(.*?\)\s*`)
	grapePercentage = regexp.MustCompile(`\s*\d+%?\s*`)
	grapeMinimum    = regexp.MustCompile(`(?i)\bmin\b\s*`)
	grapeDash       = regexp.MustCompile(`^\s*-\s*`)
)

// Facets collects the distinct non-empty values offered by each filter.
// Values are sorted ascending except vintages, which run newest first. The
// status facet is the fixed FilterStatuses list.
func Facets(wines []wine.Wine) wine.FacetSet {
	vintages := distinct(wines, func(w *wine.Wine) string { return w.Vintage })
	sort.Sort(sort.Reverse(sort.StringSlice(vintages)))

	return wine.FacetSet{
		Countries:           distinct(wines, func(w *wine.Wine) string { return w.Country }),
		Regions:             distinct(wines, func(w *wine.Wine) string { return w.Region }),
		WineTypes:           distinct(wines, func(w *wine.Wine) string { return w.WineType }),
		Vintages:            vintages,
		Bodies:              distinct(wines, func(w *wine.Wine) string { return w.Body }),
		TanninLevels:        distinct(wines, func(w *wine.Wine) string { return w.TanninLevel }),
		AcidityLevels:       distinct(wines, func(w *wine.Wine) string { return w.AcidityLevel }),
		DrinkWindowStatuses: append([]string(nil), wine.FilterStatuses...),
		GrapeVarieties:      GrapeVocabulary(wines),
	}
}

// GrapeVocabulary splits every grape list into individual variety names.
// Parenthetical asides, percentages, the word "min" and leading dashes are
// removed; fragments of two characters or fewer are dropped and the rest are
// capitalized as "Cabernet sauvignon".
func GrapeVocabulary(wines []wine.Wine) []string {
	seen := make(map[string]struct{})
	for i := range wines {
		if wines[i].GrapeVarieties == "" {
			continue
		}
		for _, frag := range grapeSeparator.Split(wines[i].GrapeVarieties, -1) {
			if name := cleanGrape(frag); name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func cleanGrape(frag string) string {
	g := strings.TrimSpace(frag)
	g = grapeAside.ReplaceAllString(g, "")
	g = grapePercentage.ReplaceAllString(g, "")
	g = grapeMinimum.ReplaceAllString(g, "")
	g = grapeDash.ReplaceAllString(g, "")
	g = strings.TrimSpace(g)

	if utf8.RuneCountInString(g) <= 2 {
		return ""
	}
	first, size := utf8.DecodeRuneInString(g)
	return string(unicode.ToUpper(first)) + strings.ToLower(g[size:])
}

func distinct(wines []wine.Wine, get func(*wine.Wine) string) []string {
	seen := make(map[string]struct{})
	for i := range wines {
		if v := get(&wines[i]); v != "" {
			seen[v] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
