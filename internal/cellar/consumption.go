package cellar

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/hyperengineering/cellar/internal/observability"
	"github.com/hyperengineering/cellar/internal/store"
	"github.com/hyperengineering/cellar/internal/wine"
)

// DateLayout is the calendar date format of consumption events.
const DateLayout = "2006-01-02"

// History returns every consumption event of a wine, newest first.
func (s *Service) History(ctx context.Context, wineID string) ([]wine.ConsumptionEvent, error) {
	events, err := s.store.ConsumptionHistory(ctx, wineID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	events = append(events, s.overlay.History(wineID)...)
	s.mu.Unlock()

	slices.SortStableFunc(events, func(a, b wine.ConsumptionEvent) int {
		return cmp.Compare(b.Date, a.Date)
	})
	return events, nil
}

// LogConsumption records one bottle of a wine as drunk. An empty date means
// today. When no bottles remain the event is still recorded with a warning,
// unless quantity enforcement is on.
func (s *Service) LogConsumption(ctx context.Context, wineID, date, notes string) (*wine.ConsumptionEvent, error) {
	s.consumeMu.Lock()
	defer s.consumeMu.Unlock()

	w, err := s.Get(ctx, wineID)
	if err != nil {
		return nil, err
	}
	history, err := s.History(ctx, wineID)
	if err != nil {
		return nil, err
	}

	if remaining := w.QuantityOrDefault() - len(history); remaining <= 0 {
		if s.enforceQuantity {
			return nil, ErrNoBottlesRemaining
		}
		slog.Warn("consumption logged beyond recorded quantity",
			"component", "cellar",
			"action", "log_consumption",
			"wine_id", wineID,
			"quantity", w.QuantityOrDefault(),
			"consumed", len(history),
		)
	}

	if date == "" {
		date = s.now().Format(DateLayout)
	}
	ev, err := s.store.AddConsumption(ctx, wineID, wine.ConsumptionEvent{Date: date, Notes: notes})
	if err != nil {
		return nil, err
	}
	observability.ConsumptionEvents.Inc()
	return ev, nil
}

// RemoveConsumption deletes one event, wherever it is recorded.
func (s *Service) RemoveConsumption(ctx context.Context, wineID, consumptionID string) error {
	err := s.store.RemoveConsumption(ctx, wineID, consumptionID)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.overlay.RemoveConsumption(wineID, consumptionID) {
		return store.ErrNotFound
	}
	return s.saveOverlay()
}

// Note returns the collector's private note on a wine.
func (s *Service) Note(ctx context.Context, wineID string) (string, error) {
	s.mu.Lock()
	note := s.overlay.Note(wineID)
	s.mu.Unlock()
	if note != "" {
		return note, nil
	}
	return s.store.UserNote(ctx, wineID)
}

// SaveNote stores the note; a blank note deletes it. Any overlay note for
// the wine is superseded and dropped.
func (s *Service) SaveNote(ctx context.Context, wineID, note string) error {
	if err := s.store.SaveUserNote(ctx, wineID, note); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay.Note(wineID) == "" {
		return nil
	}
	s.overlay.SaveNote(wineID, "")
	return s.saveOverlay()
}

// PurchaseDate returns the purchase-date override of a wine, if any.
func (s *Service) PurchaseDate(ctx context.Context, wineID string) (string, error) {
	s.mu.Lock()
	date := s.overlay.PurchaseDate(wineID)
	s.mu.Unlock()
	if date != "" {
		return date, nil
	}
	return s.store.PurchaseDate(ctx, wineID)
}

// SavePurchaseDate stores the override; a blank date deletes it.
func (s *Service) SavePurchaseDate(ctx context.Context, wineID, date string) error {
	if err := s.store.SavePurchaseDate(ctx, wineID, date); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay.PurchaseDate(wineID) == "" {
		return nil
	}
	s.overlay.SavePurchaseDate(wineID, "")
	return s.saveOverlay()
}
