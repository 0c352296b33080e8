// Package catalog is the query engine over an in-memory collection: drink
// window status, text search, attribute filters, sort orders and facets.
//
// Every function is pure. Inputs are never mutated and malformed values
// degrade to fixed defaults instead of failing, so the functions are safe to
// call concurrently on shared slices.
package catalog

import (
	"regexp"
	"strconv"

	"github.com/hyperengineering/cellar/internal/wine"
)

const (
	openStart = 0
	openEnd   = 9999
)

var peakRange = regexp.MustCompile(`(\d{4})-(\d{4})`)

// windowYears returns the parsed drink window, open-ended where unset.
func windowYears(w *wine.Wine) (start, end int) {
	return wine.IntOr(w.DrinkWindowStart, openStart), wine.IntOr(w.DrinkWindowEnd, openEnd)
}

// DrinkWindowStatus derives the status of w in the given year. It depends
// only on the window start/end, the peak range and year.
func DrinkWindowStatus(w *wine.Wine, year int) wine.Status {
	start, end := windowYears(w)

	switch {
	case year < start:
		return wine.StatusTooYoung
	case year > end:
		return wine.StatusPastPrime
	case year >= start && year <= end:
		if m := peakRange.FindStringSubmatch(w.PeakDrinking); m != nil {
			from, _ := strconv.Atoi(m[1])
			to, _ := strconv.Atoi(m[2])
			if year >= from && year <= to {
				return wine.StatusAtPeak
			}
		}
		return wine.StatusReadyToDrink
	}
	return wine.StatusUnknown
}
