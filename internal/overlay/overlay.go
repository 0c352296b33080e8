// Package overlay holds the collector's private layer over the catalog:
// added wines, deletions, notes, purchase-date overrides and consumption
// history. Its JSON form is the browser export format, so existing exports
// load unchanged.
//
// A State is a plain value with an explicit load, merge and persist
// lifecycle. It is not safe for concurrent mutation; callers that share one
// must serialize access.
package overlay

import (
	"slices"
	"strings"
	"time"

	"github.com/hyperengineering/cellar/internal/wine"
)

// LegacyConsumption is the single-bottle record that predates consumption
// history.
type LegacyConsumption struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// State is the overlay data.
type State struct {
	// ConsumedWines is read only to upgrade old exports.
	ConsumedWines      map[string]LegacyConsumption       `json:"consumedWines"`
	ConsumptionHistory map[string][]wine.ConsumptionEvent `json:"consumptionHistory"`
	UserNotes          map[string]string                  `json:"userNotes"`
	PurchaseDates      map[string]string                  `json:"purchaseDates"`
	AddedWines         []wine.Wine                        `json:"addedWines"`
	DeletedWines       []string                           `json:"deletedWines"`
}

// New returns an empty state.
func New() *State {
	s := &State{}
	s.ensure()
	return s
}

// ensure allocates every collection so callers never see nil maps.
func (s *State) ensure() {
	if s.ConsumedWines == nil {
		s.ConsumedWines = make(map[string]LegacyConsumption)
	}
	if s.ConsumptionHistory == nil {
		s.ConsumptionHistory = make(map[string][]wine.ConsumptionEvent)
	}
	if s.UserNotes == nil {
		s.UserNotes = make(map[string]string)
	}
	if s.PurchaseDates == nil {
		s.PurchaseDates = make(map[string]string)
	}
	if s.AddedWines == nil {
		s.AddedWines = []wine.Wine{}
	}
	if s.DeletedWines == nil {
		s.DeletedWines = []string{}
	}
}

// AddConsumption appends an event for wineID and returns it.
func (s *State) AddConsumption(wineID, date, notes string) wine.ConsumptionEvent {
	ev := wine.ConsumptionEvent{ID: wine.NewConsumptionID(), Date: date, Notes: notes}
	s.ConsumptionHistory[wineID] = append(s.ConsumptionHistory[wineID], ev)
	return ev
}

// RemoveConsumption deletes one event and reports whether it existed. A wine
// left without events loses its history entry.
func (s *State) RemoveConsumption(wineID, eventID string) bool {
	events := s.ConsumptionHistory[wineID]
	i := slices.IndexFunc(events, func(ev wine.ConsumptionEvent) bool { return ev.ID == eventID })
	if i < 0 {
		return false
	}
	events = slices.Delete(events, i, i+1)
	if len(events) == 0 {
		delete(s.ConsumptionHistory, wineID)
	} else {
		s.ConsumptionHistory[wineID] = events
	}
	return true
}

// History returns the events recorded for wineID in insertion order.
func (s *State) History(wineID string) []wine.ConsumptionEvent {
	return slices.Clone(s.ConsumptionHistory[wineID])
}

// ConsumedCount is the number of bottles of wineID recorded as drunk.
func (s *State) ConsumedCount(wineID string) int {
	return len(s.ConsumptionHistory[wineID])
}

// ConsumedCounts returns the consumed count of every wine with history.
func (s *State) ConsumedCounts() map[string]int {
	counts := make(map[string]int, len(s.ConsumptionHistory))
	for id, events := range s.ConsumptionHistory {
		counts[id] = len(events)
	}
	return counts
}

// Remaining is the unconsumed bottle count, never negative.
func (s *State) Remaining(wineID string, quantity int) int {
	return max(0, quantity-s.ConsumedCount(wineID))
}

// SaveNote stores a private note; a blank note removes it.
func (s *State) SaveNote(wineID, note string) {
	if strings.TrimSpace(note) == "" {
		delete(s.UserNotes, wineID)
		return
	}
	s.UserNotes[wineID] = note
}

// Note returns the private note for wineID.
func (s *State) Note(wineID string) string {
	return s.UserNotes[wineID]
}

// SavePurchaseDate stores an override; a blank date removes it.
func (s *State) SavePurchaseDate(wineID, date string) {
	if strings.TrimSpace(date) == "" {
		delete(s.PurchaseDates, wineID)
		return
	}
	s.PurchaseDates[wineID] = date
}

// PurchaseDate returns the override for wineID, empty when none is set.
func (s *State) PurchaseDate(wineID string) string {
	return s.PurchaseDates[wineID]
}

// AddWine stores w under a freshly generated user id and returns the stored
// copy.
func (s *State) AddWine(w wine.Wine, now time.Time) wine.Wine {
	w.ID = wine.NewUserID(now)
	w.Origin = wine.OriginUser
	w.Normalize()
	s.AddedWines = append(s.AddedWines, w)
	return w
}

// UpdateAddedWine applies patch to an added wine and reports whether it was
// found.
func (s *State) UpdateAddedWine(id string, patch wine.Patch) bool {
	i := s.addedIndex(id)
	if i < 0 {
		return false
	}
	s.AddedWines[i].Apply(patch)
	return true
}

func (s *State) addedIndex(id string) int {
	return slices.IndexFunc(s.AddedWines, func(w wine.Wine) bool { return w.ID == id })
}

// DeleteWine tombstones id. An added wine is dropped outright, and the
// wine's history, note and purchase-date override are discarded.
func (s *State) DeleteWine(id string) {
	if i := s.addedIndex(id); i >= 0 {
		s.AddedWines = slices.Delete(s.AddedWines, i, i+1)
	}
	if !slices.Contains(s.DeletedWines, id) {
		s.DeletedWines = append(s.DeletedWines, id)
	}
	delete(s.ConsumptionHistory, id)
	delete(s.ConsumedWines, id)
	delete(s.UserNotes, id)
	delete(s.PurchaseDates, id)
}

// RestoreWine removes the tombstone for id.
func (s *State) RestoreWine(id string) {
	s.DeletedWines = slices.DeleteFunc(s.DeletedWines, func(d string) bool { return d == id })
}

// IsDeleted reports whether id is tombstoned.
func (s *State) IsDeleted(id string) bool {
	return slices.Contains(s.DeletedWines, id)
}

// Merge composes the effective collection: catalog wines followed by added
// wines, without tombstoned ids, with purchase-date overrides applied. The
// result is built fresh on every call and shares nothing with the inputs.
func (s *State) Merge(catalog []wine.Wine) []wine.Wine {
	deleted := make(map[string]struct{}, len(s.DeletedWines))
	for _, id := range s.DeletedWines {
		deleted[id] = struct{}{}
	}

	out := make([]wine.Wine, 0, len(catalog)+len(s.AddedWines))
	for _, src := range [][]wine.Wine{catalog, s.AddedWines} {
		for _, w := range src {
			if _, gone := deleted[w.ID]; gone {
				continue
			}
			if d, ok := s.PurchaseDates[w.ID]; ok {
				w.PurchaseDate = d
			}
			out = append(out, w)
		}
	}
	return out
}
