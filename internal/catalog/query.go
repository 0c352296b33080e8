package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hyperengineering/cellar/internal/wine"
)

// ErrInvalidQuery is returned when query parameters cannot be parsed.
var ErrInvalidQuery = errors.New("invalid query")

// Query is one listing request over the collection.
type Query struct {
	Text         string
	Filters      wine.Filters
	Sort         wine.SortOrder
	ShowConsumed bool
	// Limit caps the returned page; zero returns every match.
	Limit  int
	Offset int
}

// Result is one page of matches. Total counts every match before paging.
type Result struct {
	Wines []wine.Wine `json:"wines"`
	Total int         `json:"total"`
}

// Stats summarizes the bottles still in the cellar.
type Stats struct {
	ActiveWines  int `json:"activeWines"`
	TotalBottles int `json:"totalBottles"`
}

// Remaining is the number of unconsumed bottles of w, never negative.
func Remaining(w *wine.Wine, consumed map[string]int) int {
	return max(0, w.QuantityOrDefault()-consumed[w.ID])
}

// Run applies the listing pipeline: fully consumed wines are hidden unless
// requested, then search, filter, sort and paging run in that order.
func Run(wines []wine.Wine, consumed map[string]int, q Query, year int) Result {
	matches := wines
	if !q.ShowConsumed {
		matches = make([]wine.Wine, 0, len(wines))
		for i := range wines {
			if Remaining(&wines[i], consumed) > 0 {
				matches = append(matches, wines[i])
			}
		}
	}

	matches = Search(matches, q.Text)
	matches = Filter(matches, q.Filters, year)
	matches = Sort(matches, q.Sort, year)

	return Result{Wines: page(matches, q.Offset, q.Limit), Total: len(matches)}
}

func page(wines []wine.Wine, offset, limit int) []wine.Wine {
	if offset >= len(wines) {
		return []wine.Wine{}
	}
	wines = wines[max(0, offset):]
	if limit > 0 && limit < len(wines) {
		wines = wines[:limit]
	}
	return wines
}

// Summarize counts wines with bottles remaining and the bottles left.
func Summarize(wines []wine.Wine, consumed map[string]int) Stats {
	var s Stats
	for i := range wines {
		if n := Remaining(&wines[i], consumed); n > 0 {
			s.ActiveWines++
			s.TotalBottles += n
		}
	}
	return s
}

// QueryFromValues reads a Query from URL parameters: q, sort, showConsumed,
// limit, offset and one parameter per filter named after its JSON key.
func QueryFromValues(v url.Values) (Query, error) {
	q := Query{
		Text:         v.Get("q"),
		Sort:         wine.ParseSortOrder(v.Get("sort")),
		ShowConsumed: v.Get("showConsumed") == "true",
		Filters: wine.Filters{
			Country:           v.Get("country"),
			Region:            v.Get("region"),
			WineType:          v.Get("wineType"),
			Vintage:           v.Get("vintage"),
			Body:              v.Get("body"),
			TanninLevel:       v.Get("tanninLevel"),
			AcidityLevel:      v.Get("acidityLevel"),
			DrinkWindowStatus: v.Get("drinkWindowStatus"),
			GrapeVariety:      v.Get("grapeVariety"),
		},
	}

	var err error
	if q.Limit, err = nonNegative(v, "limit"); err != nil {
		return Query{}, err
	}
	if q.Offset, err = nonNegative(v, "offset"); err != nil {
		return Query{}, err
	}
	return q, nil
}

func nonNegative(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
	}
	return n, nil
}
