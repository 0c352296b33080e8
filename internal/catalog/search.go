package catalog

import (
	"strings"

	"github.com/hyperengineering/cellar/internal/wine"
)

// Search keeps wines whose producer, name, region, country, grapes, tasting
// notes or notes contain query, ignoring case. A blank query returns wines
// unchanged.
func Search(wines []wine.Wine, query string) []wine.Wine {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return wines
	}

	out := make([]wine.Wine, 0, len(wines))
	for i := range wines {
		if matchesText(&wines[i], q) {
			out = append(out, wines[i])
		}
	}
	return out
}

func matchesText(w *wine.Wine, q string) bool {
	for _, field := range []string{
		w.Producer,
		w.Name,
		w.Region,
		w.Country,
		w.GrapeVarieties,
		w.TastingNotes,
		w.Notes,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
