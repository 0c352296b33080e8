package cellar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/store"
	"github.com/hyperengineering/cellar/internal/wine"
)

// MigrationReport counts what an overlay import wrote to the store.
type MigrationReport struct {
	AddedWines        int `json:"addedWines"`
	ConsumptionEvents int `json:"consumptionEvents"`
	Notes             int `json:"notes"`
	PurchaseDates     int `json:"purchaseDates"`
	DeletedWines      int `json:"deletedWines"`
}

// ImportOverlay writes an exported overlay into the store: added wines,
// consumption history, notes, purchase-date overrides and deletions.
// Events already stored under the same id are skipped, so re-running an
// import does not double count bottles.
func (s *Service) ImportOverlay(ctx context.Context, st *overlay.State) (*MigrationReport, error) {
	var report MigrationReport

	if len(st.AddedWines) > 0 {
		added := slices.Clone(st.AddedWines)
		for i := range added {
			w := &added[i]
			w.FrontImage, w.BackImage = images.UploadPair(ctx, s.images, w.ID, w.FrontImage, w.BackImage)
		}
		n, err := s.store.ImportWines(ctx, added, wine.OriginUser)
		if err != nil {
			return &report, fmt.Errorf("import added wines: %w", err)
		}
		report.AddedWines = n
	}

	for _, wineID := range slices.Sorted(maps.Keys(st.ConsumptionHistory)) {
		existing, err := s.store.ConsumptionHistory(ctx, wineID)
		if err != nil {
			return &report, fmt.Errorf("read history of %s: %w", wineID, err)
		}
		seen := make(map[string]bool, len(existing))
		for _, ev := range existing {
			seen[ev.ID] = true
		}
		for _, ev := range st.ConsumptionHistory[wineID] {
			if ev.ID != "" && seen[ev.ID] {
				continue
			}
			if _, err := s.store.AddConsumption(ctx, wineID, ev); err != nil {
				return &report, fmt.Errorf("import consumption of %s: %w", wineID, err)
			}
			report.ConsumptionEvents++
		}
	}

	for _, wineID := range slices.Sorted(maps.Keys(st.UserNotes)) {
		if err := s.store.SaveUserNote(ctx, wineID, st.UserNotes[wineID]); err != nil {
			return &report, fmt.Errorf("import note of %s: %w", wineID, err)
		}
		report.Notes++
	}

	for _, wineID := range slices.Sorted(maps.Keys(st.PurchaseDates)) {
		if err := s.store.SavePurchaseDate(ctx, wineID, st.PurchaseDates[wineID]); err != nil {
			return &report, fmt.Errorf("import purchase date of %s: %w", wineID, err)
		}
		report.PurchaseDates++
	}

	for _, wineID := range st.DeletedWines {
		err := s.store.DeleteWine(ctx, wineID)
		switch {
		case err == nil:
			report.DeletedWines++
		case errors.Is(err, store.ErrNotFound):
			// Already deleted, or an added wine that was never exported.
		default:
			return &report, fmt.Errorf("import deletion of %s: %w", wineID, err)
		}
	}

	slog.Info("overlay imported",
		"component", "cellar",
		"action", "import_overlay",
		"added_wines", report.AddedWines,
		"consumption_events", report.ConsumptionEvents,
		"notes", report.Notes,
		"purchase_dates", report.PurchaseDates,
		"deleted_wines", report.DeletedWines,
	)
	return &report, nil
}

// MigrateOverlay moves the service's own overlay into the store and leaves
// an empty overlay behind.
func (s *Service) MigrateOverlay(ctx context.Context) (*MigrationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.ImportOverlay(ctx, s.overlay)
	if err != nil {
		return report, err
	}
	s.overlay = overlay.New()
	return report, s.saveOverlay()
}

// ExportAddedWines writes the wines that live only in the overlay as an
// indented JSON array.
func (s *Service) ExportAddedWines(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.ExportAddedWines(w)
}
