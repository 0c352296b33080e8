// Package cellar composes durable storage, the collector's overlay, label
// image storage and the assistant into the effective collection that the
// HTTP API and the CLI operate on.
package cellar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hyperengineering/cellar/internal/assistant"
	"github.com/hyperengineering/cellar/internal/catalog"
	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/observability"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/similarity"
	"github.com/hyperengineering/cellar/internal/store"
	"github.com/hyperengineering/cellar/internal/wine"
)

// ErrNoBottlesRemaining is returned when consumption is logged for a wine
// with no bottles left and quantity enforcement is on.
var ErrNoBottlesRemaining = errors.New("no bottles remaining")

var imageFields = map[string]images.Side{
	"frontImage": images.Front,
	"backImage":  images.Back,
}

// Options configures a Service.
type Options struct {
	// OverlayPath is where overlay changes are persisted. Empty keeps the
	// overlay in memory only.
	OverlayPath string
	// EnforceQuantity rejects consumption beyond the recorded bottle count.
	EnforceQuantity bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service is the collection service. It is safe for concurrent use.
type Service struct {
	store     store.Store
	images    images.Store
	assistant *assistant.Assistant

	overlayPath     string
	enforceQuantity bool
	now             func() time.Time

	mu      sync.Mutex // guards overlay
	overlay *overlay.State

	// consumeMu serializes the bottle count check with the insert.
	consumeMu sync.Mutex
}

// New creates a Service. A nil overlay starts empty, nil images keep label
// photographs inline, and a nil assistant reports every AI call as not
// configured.
func New(st store.Store, ov *overlay.State, img images.Store, ai *assistant.Assistant, opts Options) *Service {
	if ov == nil {
		ov = overlay.New()
	}
	if img == nil {
		img = images.NoopStore{}
	}
	if ai == nil {
		ai = assistant.NewWithService(nil, assistantDefaults)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:           st,
		images:          img,
		assistant:       ai,
		overlayPath:     opts.OverlayPath,
		enforceQuantity: opts.EnforceQuantity,
		now:             now,
		overlay:         ov,
	}
}

// Listing is one page of the collection plus cellar-wide totals.
type Listing struct {
	catalog.Result
	Stats catalog.Stats `json:"stats"`
}

// Collection returns the effective collection and the consumed-bottle count
// per wine. Stored wines come first with stored purchase-date overrides
// applied, then the overlay is merged on top.
func (s *Service) Collection(ctx context.Context) ([]wine.Wine, map[string]int, error) {
	wines, err := s.store.ListWines(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list wines: %w", err)
	}
	dates, err := s.store.PurchaseDates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list purchase dates: %w", err)
	}
	for i := range wines {
		if d, ok := dates[wines[i].ID]; ok {
			wines[i].PurchaseDate = d
		}
	}
	counts, err := s.store.ConsumptionCounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("count consumption: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.overlay.Merge(wines)
	for id, n := range s.overlay.ConsumedCounts() {
		counts[id] += n
	}
	return merged, counts, nil
}

// List runs the query pipeline over the collection.
func (s *Service) List(ctx context.Context, q catalog.Query) (*Listing, error) {
	wines, counts, err := s.Collection(ctx)
	if err != nil {
		return nil, err
	}
	observability.CollectionWines.Set(float64(len(wines)))

	return &Listing{
		Result: catalog.Run(wines, counts, q, s.now().Year()),
		Stats:  catalog.Summarize(wines, counts),
	}, nil
}

// RefreshMetrics recomputes the collection gauges.
func (s *Service) RefreshMetrics(ctx context.Context) error {
	wines, counts, err := s.Collection(ctx)
	if err != nil {
		return err
	}
	stats := catalog.Summarize(wines, counts)
	observability.CollectionWines.Set(float64(len(wines)))
	observability.ActiveWines.Set(float64(stats.ActiveWines))
	observability.BottlesRemaining.Set(float64(stats.TotalBottles))
	return nil
}

// Facets returns the selectable filter values over the whole collection.
func (s *Service) Facets(ctx context.Context) (wine.FacetSet, error) {
	wines, _, err := s.Collection(ctx)
	if err != nil {
		return wine.FacetSet{}, err
	}
	return catalog.Facets(wines), nil
}

// Get returns one wine of the effective collection.
func (s *Service) Get(ctx context.Context, id string) (*wine.Wine, error) {
	wines, _, err := s.Collection(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(wines, func(w wine.Wine) bool { return w.ID == id })
	if i < 0 {
		return nil, store.ErrNotFound
	}
	return &wines[i], nil
}

// Similar ranks the rest of the collection against one wine.
func (s *Service) Similar(ctx context.Context, id string, limit int) ([]similarity.Match, error) {
	wines, _, err := s.Collection(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(wines, func(w wine.Wine) bool { return w.ID == id })
	if i < 0 {
		return nil, store.ErrNotFound
	}
	return similarity.Rank(&wines[i], wines, limit), nil
}

// Add stores a new collector wine under a fresh user id. Inline label images
// are uploaded first; a failed upload leaves the image inline for the
// background worker to retry.
func (s *Service) Add(ctx context.Context, w wine.Wine) (*wine.Wine, error) {
	w.ID = wine.NewUserID(s.now())
	w.Origin = wine.OriginUser
	w.Normalize()
	w.FrontImage, w.BackImage = images.UploadPair(ctx, s.images, w.ID, w.FrontImage, w.BackImage)

	created, err := s.store.CreateWine(ctx, w)
	if err != nil {
		return nil, err
	}
	slog.Info("wine added",
		"component", "cellar",
		"action", "add",
		"wine_id", created.ID,
	)
	return created, nil
}

// Import upserts wines by id. Collector wines without an id get one.
func (s *Service) Import(ctx context.Context, wines []wine.Wine, userAdded bool) (int, error) {
	origin := wine.OriginCatalog
	if userAdded {
		origin = wine.OriginUser
		now := s.now()
		for i := range wines {
			if wines[i].ID == "" {
				wines[i].ID = wine.NewUserID(now)
			}
		}
	}
	n, err := s.store.ImportWines(ctx, wines, origin)
	if err != nil {
		return 0, err
	}
	slog.Info("wines imported",
		"component", "cellar",
		"action", "import",
		"origin", string(origin),
		"count", n,
	)
	return n, nil
}

// Update applies a partial update. Wines that live only in the overlay are
// updated there; everything else goes to the store.
func (s *Service) Update(ctx context.Context, id string, patch wine.Patch) (*wine.Wine, error) {
	if len(patch) == 0 {
		return nil, store.ErrInvalidPatch
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	for key, side := range imageFields {
		if v, ok := patch[key]; ok {
			patch[key] = images.UploadOrKeep(ctx, s.images, id, side, v)
		}
	}

	s.mu.Lock()
	if s.overlay.UpdateAddedWine(id, patch) {
		w := s.overlayWine(id)
		err := s.saveOverlay()
		s.mu.Unlock()
		return w, err
	}
	s.mu.Unlock()

	return s.store.UpdateWine(ctx, id, patch)
}

// Delete soft-deletes a wine. Overlay wines are dropped from the overlay.
// With purge, stored label images are removed as well and the wine comes
// back without them if restored.
func (s *Service) Delete(ctx context.Context, id string, purge bool) error {
	s.mu.Lock()
	if s.overlayWine(id) != nil {
		s.overlay.DeleteWine(id)
		err := s.saveOverlay()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if purge {
		if err := s.images.DeleteAll(ctx, id); err != nil {
			return err
		}
		if _, err := s.store.UpdateWine(ctx, id, wine.Patch{"frontImage": "", "backImage": ""}); err != nil {
			return err
		}
	}
	if err := s.store.DeleteWine(ctx, id); err != nil {
		return err
	}
	slog.Info("wine deleted",
		"component", "cellar",
		"action", "delete",
		"wine_id", id,
		"purge", purge,
	)
	return nil
}

// Restore undoes a deletion, clearing both a stored soft delete and an
// overlay tombstone.
func (s *Service) Restore(ctx context.Context, id string) error {
	s.mu.Lock()
	tombstoned := s.overlay.IsDeleted(id)
	if tombstoned {
		s.overlay.RestoreWine(id)
		if err := s.saveOverlay(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	err := s.store.RestoreWine(ctx, id)
	if errors.Is(err, store.ErrNotFound) && tombstoned {
		return nil
	}
	return err
}

// Health checks storage and returns its counts.
func (s *Service) Health(ctx context.Context) (*store.Stats, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}

// overlayWine returns a copy of an overlay-added wine, or nil. Callers hold mu.
func (s *Service) overlayWine(id string) *wine.Wine {
	for _, w := range s.overlay.AddedWines {
		if w.ID == id {
			return &w
		}
	}
	return nil
}

// saveOverlay persists the overlay. Callers hold mu.
func (s *Service) saveOverlay() error {
	if s.overlayPath == "" {
		return nil
	}
	return s.overlay.Save(s.overlayPath)
}
