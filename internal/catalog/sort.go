package catalog

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hyperengineering/cellar/internal/wine"
)

var statusRank = map[wine.Status]int{
	wine.StatusAtPeak:       0,
	wine.StatusReadyToDrink: 1,
	wine.StatusTooYoung:     2,
	wine.StatusPastPrime:    3,
}

const otherStatusRank = 4

// Sort returns a sorted copy of wines in the given order, evaluating drink
// windows against year. Ties fall back to producer then name, so the result
// is fully determined by the input. Unknown orders sort as drink-soon.
func Sort(wines []wine.Wine, order wine.SortOrder, year int) []wine.Wine {
	out := slices.Clone(wines)
	s := sorter{col: collate.New(language.English), year: year}
	primary := s.primary(order)

	slices.SortStableFunc(out, func(a, b wine.Wine) int {
		if c := primary(&a, &b); c != 0 {
			return c
		}
		if c := s.text(a.Producer, b.Producer); c != 0 {
			return c
		}
		return s.text(a.Name, b.Name)
	})
	return out
}

// sorter holds per-call state. A collator keeps internal buffers and must not
// be shared between goroutines.
type sorter struct {
	col  *collate.Collator
	year int
}

func (s sorter) text(a, b string) int {
	return s.col.CompareString(a, b)
}

func (s sorter) primary(order wine.SortOrder) func(a, b *wine.Wine) int {
	switch order {
	case wine.SortStatusPriority:
		return func(a, b *wine.Wine) int {
			return cmp.Compare(s.statusRank(a), s.statusRank(b))
		}
	case wine.SortProducerAZ:
		return func(a, b *wine.Wine) int {
			return s.text(a.Producer, b.Producer)
		}
	case wine.SortWineNameAZ:
		return func(a, b *wine.Wine) int {
			if c := s.text(a.Name, b.Name); c != 0 {
				return c
			}
			return s.text(a.Producer, b.Producer)
		}
	case wine.SortVintageNewest:
		return func(a, b *wine.Wine) int {
			return cmp.Compare(wine.IntOr(b.Vintage, 0), wine.IntOr(a.Vintage, 0))
		}
	case wine.SortVintageOldest:
		return func(a, b *wine.Wine) int {
			return cmp.Compare(wine.IntOr(a.Vintage, 9999), wine.IntOr(b.Vintage, 9999))
		}
	case wine.SortRegion:
		return func(a, b *wine.Wine) int {
			if c := s.text(a.Country, b.Country); c != 0 {
				return c
			}
			return s.text(a.Region, b.Region)
		}
	case wine.SortRating:
		return func(a, b *wine.Wine) int {
			return cmp.Compare(wine.IntOr(b.Rating, 0), wine.IntOr(a.Rating, 0))
		}
	default:
		return s.drinkSoon
	}
}

// drinkSoon puts wines past their window first, then orders by window end
// and window start.
func (s sorter) drinkSoon(a, b *wine.Wine) int {
	aStart, aEnd := windowYears(a)
	bStart, bEnd := windowYears(b)
	aPast, bPast := s.year > aEnd, s.year > bEnd

	switch {
	case aPast && !bPast:
		return -1
	case !aPast && bPast:
		return 1
	}
	if c := cmp.Compare(aEnd, bEnd); c != 0 {
		return c
	}
	return cmp.Compare(aStart, bStart)
}

func (s sorter) statusRank(w *wine.Wine) int {
	if r, ok := statusRank[DrinkWindowStatus(w, s.year)]; ok {
		return r
	}
	return otherStatusRank
}
