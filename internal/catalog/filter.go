package catalog

import (
	"strings"

	"github.com/hyperengineering/cellar/internal/wine"
)

// Filter keeps wines satisfying every non-empty criterion. Attributes match
// by equality, except the drink window status, which is derived for year,
// and the grape variety, which matches as a case-insensitive substring of the
// wine's grape list. Empty criteria return wines unchanged.
func Filter(wines []wine.Wine, f wine.Filters, year int) []wine.Wine {
	if f.IsEmpty() {
		return wines
	}

	out := make([]wine.Wine, 0, len(wines))
	for i := range wines {
		if Matches(&wines[i], f, year) {
			out = append(out, wines[i])
		}
	}
	return out
}

// Matches reports whether w satisfies every criterion in f.
func Matches(w *wine.Wine, f wine.Filters, year int) bool {
	if !equalOrUnset(f.Country, w.Country) ||
		!equalOrUnset(f.Region, w.Region) ||
		!equalOrUnset(f.WineType, w.WineType) ||
		!equalOrUnset(f.Vintage, w.Vintage) ||
		!equalOrUnset(f.Body, w.Body) ||
		!equalOrUnset(f.TanninLevel, w.TanninLevel) ||
		!equalOrUnset(f.AcidityLevel, w.AcidityLevel) {
		return false
	}
	if f.DrinkWindowStatus != "" && string(DrinkWindowStatus(w, year)) != f.DrinkWindowStatus {
		return false
	}
	if f.GrapeVariety != "" &&
		!strings.Contains(strings.ToLower(w.GrapeVarieties), strings.ToLower(f.GrapeVariety)) {
		return false
	}
	return true
}

func equalOrUnset(want, got string) bool {
	return want == "" || want == got
}
