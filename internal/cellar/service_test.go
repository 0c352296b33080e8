package cellar

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/cellar/internal/assistant"
	"github.com/hyperengineering/cellar/internal/catalog"
	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/store"
	"github.com/hyperengineering/cellar/internal/wine"
)

const inlineImage = "data:image/jpeg;base64,aGVsbG8="

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// fakeImages implements images.Store for testing
type fakeImages struct {
	fail     bool
	uploads  []string
	deleted  []string
	disabled bool
}

func (f *fakeImages) Upload(ctx context.Context, wineID string, side images.Side, image string) (string, error) {
	if !images.IsDataURL(image) {
		return image, nil
	}
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	url := "https://img.example/" + wineID + "/" + string(side) + ".jpg"
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeImages) DeleteAll(ctx context.Context, wineID string) error {
	f.deleted = append(f.deleted, wineID)
	return nil
}

func (f *fakeImages) Enabled() bool { return !f.disabled }

func testCatalog() []wine.Wine {
	return []wine.Wine{
		{
			ID: "1", Producer: "Castello Banfi", Name: "Brunello di Montalcino", Vintage: "2018",
			Country: "Italy", Region: "Tuscany", WineType: "Red", GrapeVarieties: "Sangiovese",
			Body: "Full", DrinkWindowStart: "2023", DrinkWindowEnd: "2035", Quantity: "2",
		},
		{
			ID: "2", Producer: "Domaine Leflaive", Name: "Puligny-Montrachet", Vintage: "2020",
			Country: "France", Region: "Burgundy", WineType: "White", GrapeVarieties: "Chardonnay",
			Body: "Medium", Quantity: "1",
		},
		{
			ID: "3", Producer: "Biondi-Santi", Name: "Rosso di Montalcino", Vintage: "2019",
			Country: "Italy", Region: "Tuscany", WineType: "Red", GrapeVarieties: "Sangiovese",
			Body: "Medium", Quantity: "1",
		},
	}
}

type testEnv struct {
	svc    *Service
	store  *store.SQLStore
	images *fakeImages
}

func newTestEnv(t *testing.T, ov *overlay.State, opts Options) *testEnv {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	if _, err := st.ImportWines(context.Background(), testCatalog(), wine.OriginCatalog); err != nil {
		t.Fatalf("ImportWines: %v", err)
	}

	img := &fakeImages{}
	opts.Now = func() time.Time { return fixedNow }
	return &testEnv{
		svc:    New(st, ov, img, nil, opts),
		store:  st,
		images: img,
	}
}

func ids(wines []wine.Wine) string {
	out := make([]string, len(wines))
	for i, w := range wines {
		out[i] = w.ID
	}
	return strings.Join(out, ",")
}

func TestCollection_MergesOverlay(t *testing.T) {
	ov := overlay.New()
	ov.AddedWines = append(ov.AddedWines, wine.Wine{ID: "user-1-abc", Origin: wine.OriginUser, Producer: "Ridge", Name: "Monte Bello", Quantity: "1"})
	ov.DeletedWines = append(ov.DeletedWines, "2")
	ov.SavePurchaseDate("3", "2021-05-01")
	ov.AddConsumption("1", "2024-12-31", "")

	env := newTestEnv(t, ov, Options{})
	ctx := context.Background()

	if err := env.store.SavePurchaseDate(ctx, "1", "2022-02-02"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.AddConsumption(ctx, "1", wine.ConsumptionEvent{Date: "2025-01-01"}); err != nil {
		t.Fatal(err)
	}

	wines, counts, err := env.svc.Collection(ctx)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if got := ids(wines); got != "3,1,user-1-abc" {
		t.Errorf("collection ids = %s, want 3,1,user-1-abc", got)
	}
	if wines[0].PurchaseDate != "2021-05-01" {
		t.Errorf("overlay purchase date not applied: %q", wines[0].PurchaseDate)
	}
	if wines[1].PurchaseDate != "2022-02-02" {
		t.Errorf("stored purchase date not applied: %q", wines[1].PurchaseDate)
	}
	if counts["1"] != 2 {
		t.Errorf("counts[1] = %d, want 2 (store + overlay)", counts["1"])
	}
}

func TestList_HidesConsumedAndReportsStats(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	if _, err := env.svc.LogConsumption(ctx, "2", "2025-01-01", ""); err != nil {
		t.Fatal(err)
	}

	listing, err := env.svc.List(ctx, catalog.Query{Sort: wine.SortProducerAZ})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(listing.Wines); got != "3,1" {
		t.Errorf("ids = %s, want 3,1", got)
	}
	if listing.Total != 2 {
		t.Errorf("Total = %d, want 2", listing.Total)
	}
	if listing.Stats.ActiveWines != 2 || listing.Stats.TotalBottles != 3 {
		t.Errorf("Stats = %+v, want 2 wines / 3 bottles", listing.Stats)
	}

	all, err := env.svc.List(ctx, catalog.Query{ShowConsumed: true, Text: "montalcino"})
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 2 {
		t.Errorf("search total = %d, want 2", all.Total)
	}
}

func TestFacetsAndSummary(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	facets, err := env.svc.Facets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(facets.Countries, ",") != "France,Italy" {
		t.Errorf("Countries = %v", facets.Countries)
	}
	if strings.Join(facets.GrapeVarieties, ",") != "Chardonnay,Sangiovese" {
		t.Errorf("GrapeVarieties = %v", facets.GrapeVarieties)
	}

	listing, err := env.svc.List(ctx, catalog.Query{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if stats := listing.Stats; stats.ActiveWines != 3 || stats.TotalBottles != 4 {
		t.Errorf("Stats = %+v, want 3 wines / 4 bottles regardless of paging", stats)
	}
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	if _, err := env.svc.Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSimilar(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	matches, err := env.svc.Similar(context.Background(), "1", 6)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(matches) != 1 || matches[0].Wine.ID != "3" {
		t.Fatalf("matches = %+v, want only wine 3", matches)
	}
	if matches[0].Score <= 0 {
		t.Errorf("Score = %d, want > 0", matches[0].Score)
	}

	if _, err := env.svc.Similar(context.Background(), "missing", 6); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Similar(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAdd_AssignsIdentityAndUploadsImages(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	created, err := env.svc.Add(ctx, wine.Wine{ID: "ignored", Producer: "Ridge", Name: "Monte Bello", FrontImage: inlineImage})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasPrefix(created.ID, "user-1748779200000-") {
		t.Errorf("ID = %q, want user id stamped with the clock", created.ID)
	}
	if created.Origin != wine.OriginUser || created.Quantity != wine.DefaultQuantity {
		t.Errorf("created = %+v, want user origin and default quantity", created)
	}
	if created.FrontImage != "https://img.example/"+created.ID+"/front.jpg" {
		t.Errorf("FrontImage = %q, want uploaded URL", created.FrontImage)
	}

	got, err := env.svc.Get(ctx, created.ID)
	if err != nil || got.Producer != "Ridge" {
		t.Errorf("Get after Add = %+v, %v", got, err)
	}
}

func TestAdd_UploadFailureKeepsInlineImage(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.images.fail = true

	created, err := env.svc.Add(context.Background(), wine.Wine{Producer: "Ridge", BackImage: inlineImage})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.BackImage != inlineImage {
		t.Errorf("BackImage = %q, want inline image kept", created.BackImage)
	}

	pending, err := env.svc.PendingImages(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != created.ID {
		t.Errorf("pending = %v, want the new wine", ids(pending))
	}
}

func TestUploadInlineImages(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()
	env.images.fail = true
	created, err := env.svc.Add(ctx, wine.Wine{Producer: "Ridge", FrontImage: inlineImage, BackImage: "https://img.example/keep.jpg"})
	if err != nil {
		t.Fatal(err)
	}

	done, err := env.svc.UploadInlineImages(ctx, created)
	if err != nil || done {
		t.Fatalf("UploadInlineImages while failing = (%v, %v), want (false, nil)", done, err)
	}

	env.images.fail = false
	done, err = env.svc.UploadInlineImages(ctx, created)
	if err != nil || !done {
		t.Fatalf("UploadInlineImages = (%v, %v), want (true, nil)", done, err)
	}
	got, _ := env.svc.Get(ctx, created.ID)
	if images.IsDataURL(got.FrontImage) || got.BackImage != "https://img.example/keep.jpg" {
		t.Errorf("images after upload = %q / %q", got.FrontImage, got.BackImage)
	}
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	n, err := env.svc.Import(ctx, []wine.Wine{{Producer: "Ridge"}, {ID: "user-9-x", Producer: "Jamet"}}, true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	wines, _, _ := env.svc.Collection(ctx)
	userCount := 0
	for _, w := range wines {
		if w.IsUserAdded() {
			userCount++
		}
	}
	if userCount != 2 {
		t.Errorf("user wines = %d, want 2", userCount)
	}

	if _, err := env.svc.Import(ctx, []wine.Wine{{Producer: "No id"}}, false); !errors.Is(err, store.ErrMissingID) {
		t.Errorf("catalog import without id error = %v, want ErrMissingID", err)
	}
}

func TestUpdate_StoreAndOverlayWines(t *testing.T) {
	ov := overlay.New()
	ov.AddedWines = append(ov.AddedWines, wine.Wine{ID: "user-1-abc", Origin: wine.OriginUser, Producer: "Ridge", Quantity: "1"})
	path := filepath.Join(t.TempDir(), "overlay.json")
	env := newTestEnv(t, ov, Options{OverlayPath: path})
	ctx := context.Background()

	updated, err := env.svc.Update(ctx, "1", wine.Patch{"quantity": "6", "notes": "magnum"})
	if err != nil {
		t.Fatalf("Update store wine: %v", err)
	}
	if updated.Quantity != "6" || updated.Notes != "magnum" {
		t.Errorf("updated = %+v", updated)
	}

	updated, err = env.svc.Update(ctx, "user-1-abc", wine.Patch{"name": "Monte Bello", "frontImage": inlineImage})
	if err != nil {
		t.Fatalf("Update overlay wine: %v", err)
	}
	if updated.Name != "Monte Bello" || updated.FrontImage != "https://img.example/user-1-abc/front.jpg" {
		t.Errorf("updated overlay wine = %+v", updated)
	}
	saved, err := overlay.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.AddedWines) != 1 || saved.AddedWines[0].Name != "Monte Bello" {
		t.Errorf("overlay not persisted: %+v", saved.AddedWines)
	}

	if _, err := env.svc.Update(ctx, "missing", wine.Patch{"name": "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.Update(ctx, "missing", wine.Patch{"backImage": inlineImage}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update(missing, image) error = %v, want ErrNotFound", err)
	}
	for _, u := range env.images.uploads {
		if strings.Contains(u, "/missing/") {
			t.Errorf("uploaded %s for a wine that does not exist", u)
		}
	}
	if _, err := env.svc.Update(ctx, "1", wine.Patch{}); !errors.Is(err, store.ErrInvalidPatch) {
		t.Errorf("Update(empty) error = %v, want ErrInvalidPatch", err)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	if err := env.svc.Delete(ctx, "1", false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.svc.Get(ctx, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := env.svc.Delete(ctx, "1", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}

	if err := env.svc.Restore(ctx, "1"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := env.svc.Get(ctx, "1"); err != nil {
		t.Errorf("Get after restore: %v", err)
	}
	if err := env.svc.Restore(ctx, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Restore of live wine error = %v, want ErrNotFound", err)
	}
}

func TestDelete_PurgeRemovesImages(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()
	if _, err := env.store.UpdateWine(ctx, "2", wine.Patch{"frontImage": "https://img.example/2/front.jpg"}); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Delete(ctx, "2", true); err != nil {
		t.Fatalf("Delete purge: %v", err)
	}
	if len(env.images.deleted) != 1 || env.images.deleted[0] != "2" {
		t.Errorf("DeleteAll calls = %v, want [2]", env.images.deleted)
	}
	if err := env.svc.Restore(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	got, _ := env.svc.Get(ctx, "2")
	if got.FrontImage != "" {
		t.Errorf("FrontImage after purge = %q, want empty", got.FrontImage)
	}
}

func TestRestore_OverlayTombstone(t *testing.T) {
	ov := overlay.New()
	ov.DeleteWine("3")
	env := newTestEnv(t, ov, Options{})
	ctx := context.Background()

	if _, err := env.svc.Get(ctx, "3"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("tombstoned wine visible: %v", err)
	}
	if err := env.svc.Restore(ctx, "3"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := env.svc.Get(ctx, "3"); err != nil {
		t.Errorf("Get after restore: %v", err)
	}
}

func TestLogConsumption_AdvisoryByDefault(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.svc.LogConsumption(ctx, "2", "", "with friends"); err != nil {
			t.Fatalf("LogConsumption #%d: %v", i+1, err)
		}
	}
	history, err := env.svc.History(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %+v, want 2 events", history)
	}
	if history[0].Date != "2025-06-01" {
		t.Errorf("Date = %q, want today", history[0].Date)
	}
}

func TestLogConsumption_Enforced(t *testing.T) {
	env := newTestEnv(t, nil, Options{EnforceQuantity: true})
	ctx := context.Background()

	if _, err := env.svc.LogConsumption(ctx, "2", "2025-01-01", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.LogConsumption(ctx, "2", "2025-01-02", ""); !errors.Is(err, ErrNoBottlesRemaining) {
		t.Errorf("error = %v, want ErrNoBottlesRemaining", err)
	}
	if _, err := env.svc.LogConsumption(ctx, "missing", "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown wine error = %v, want ErrNotFound", err)
	}
}

// slowHistoryStore widens the gap between reading a wine's history and
// recording a new event.
type slowHistoryStore struct {
	*store.SQLStore
}

func (s slowHistoryStore) ConsumptionHistory(ctx context.Context, wineID string) ([]wine.ConsumptionEvent, error) {
	events, err := s.SQLStore.ConsumptionHistory(ctx, wineID)
	time.Sleep(20 * time.Millisecond)
	return events, err
}

func TestLogConsumption_EnforcedUnderConcurrency(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	svc := New(slowHistoryStore{env.store}, nil, env.images, nil, Options{
		EnforceQuantity: true,
		Now:             func() time.Time { return fixedNow },
	})
	ctx := context.Background()

	// Wine 2 has a single bottle.
	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.LogConsumption(ctx, "2", "2025-01-01", "")
		}()
	}
	wg.Wait()

	var logged int
	for _, err := range errs {
		switch {
		case err == nil:
			logged++
		case !errors.Is(err, ErrNoBottlesRemaining):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if logged != 1 {
		t.Errorf("%d calls succeeded, want 1", logged)
	}
	history, err := env.store.ConsumptionHistory(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("recorded %d events for a one-bottle wine, want 1", len(history))
	}
}

func TestHistoryAndRemoveConsumption_SpanOverlay(t *testing.T) {
	ov := overlay.New()
	old := ov.AddConsumption("1", "2023-12-31", "NYE")
	env := newTestEnv(t, ov, Options{})
	ctx := context.Background()

	ev, err := env.svc.LogConsumption(ctx, "1", "2025-02-14", "")
	if err != nil {
		t.Fatal(err)
	}

	history, err := env.svc.History(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].ID != ev.ID || history[1].ID != old.ID {
		t.Errorf("history = %+v, want newest first across store and overlay", history)
	}

	if err := env.svc.RemoveConsumption(ctx, "1", old.ID); err != nil {
		t.Errorf("RemoveConsumption(overlay event): %v", err)
	}
	if err := env.svc.RemoveConsumption(ctx, "1", ev.ID); err != nil {
		t.Errorf("RemoveConsumption(store event): %v", err)
	}
	if err := env.svc.RemoveConsumption(ctx, "1", ev.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second remove error = %v, want ErrNotFound", err)
	}
}

func TestNotesAndPurchaseDates_SupersedeOverlay(t *testing.T) {
	ov := overlay.New()
	ov.SaveNote("1", "from the browser")
	ov.SavePurchaseDate("1", "2019-01-01")
	env := newTestEnv(t, ov, Options{})
	ctx := context.Background()

	if note, _ := env.svc.Note(ctx, "1"); note != "from the browser" {
		t.Errorf("Note = %q, want overlay note", note)
	}
	if err := env.svc.SaveNote(ctx, "1", "decant two hours"); err != nil {
		t.Fatal(err)
	}
	if note, _ := env.svc.Note(ctx, "1"); note != "decant two hours" {
		t.Errorf("Note after save = %q", note)
	}

	if err := env.svc.SavePurchaseDate(ctx, "1", "2020-03-03"); err != nil {
		t.Fatal(err)
	}
	if date, _ := env.svc.PurchaseDate(ctx, "1"); date != "2020-03-03" {
		t.Errorf("PurchaseDate = %q, want stored value", date)
	}
	got, _ := env.svc.Get(ctx, "1")
	if got.PurchaseDate != "2020-03-03" {
		t.Errorf("collection PurchaseDate = %q", got.PurchaseDate)
	}

	if err := env.svc.SaveNote(ctx, "1", "  "); err != nil {
		t.Fatal(err)
	}
	if note, _ := env.svc.Note(ctx, "1"); note != "" {
		t.Errorf("Note after blank save = %q, want empty", note)
	}
}

func TestImportOverlay_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	ctx := context.Background()

	export := overlay.New()
	export.AddedWines = append(export.AddedWines, wine.Wine{ID: "user-5-xyz", Producer: "Ridge", FrontImage: inlineImage})
	export.ConsumptionHistory["1"] = []wine.ConsumptionEvent{{ID: overlay.LegacyEventID("1"), Date: "2023-12-31"}}
	export.SaveNote("3", "gift")
	export.SavePurchaseDate("3", "2022-10-10")
	export.DeletedWines = append(export.DeletedWines, "2", "user-gone")

	report, err := env.svc.ImportOverlay(ctx, export)
	if err != nil {
		t.Fatalf("ImportOverlay: %v", err)
	}
	want := MigrationReport{AddedWines: 1, ConsumptionEvents: 1, Notes: 1, PurchaseDates: 1, DeletedWines: 1}
	if *report != want {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	again, err := env.svc.ImportOverlay(ctx, export)
	if err != nil {
		t.Fatalf("second ImportOverlay: %v", err)
	}
	if again.ConsumptionEvents != 0 {
		t.Errorf("second import added %d events, want 0", again.ConsumptionEvents)
	}

	added, err := env.svc.Get(ctx, "user-5-xyz")
	if err != nil {
		t.Fatal(err)
	}
	if added.Origin != wine.OriginUser || added.FrontImage != "https://img.example/user-5-xyz/front.jpg" {
		t.Errorf("imported wine = %+v", added)
	}
	if _, err := env.svc.Get(ctx, "2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted wine still visible: %v", err)
	}
	if note, _ := env.svc.Note(ctx, "3"); note != "gift" {
		t.Errorf("Note = %q, want gift", note)
	}
}

func TestMigrateOverlay_EmptiesOverlay(t *testing.T) {
	ov := overlay.New()
	ov.AddConsumption("1", "2024-01-01", "")
	path := filepath.Join(t.TempDir(), "overlay.json")
	env := newTestEnv(t, ov, Options{OverlayPath: path})
	ctx := context.Background()

	if _, err := env.svc.MigrateOverlay(ctx); err != nil {
		t.Fatalf("MigrateOverlay: %v", err)
	}

	_, counts, err := env.svc.Collection(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["1"] != 1 {
		t.Errorf("counts[1] = %d, want 1 (moved, not duplicated)", counts["1"])
	}
	saved, err := overlay.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.ConsumptionHistory) != 0 {
		t.Errorf("persisted overlay still has history: %+v", saved.ConsumptionHistory)
	}
}

func TestChat_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	reply, err := env.svc.Chat(context.Background(), "What should I open?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Reply != assistant.NotConfiguredReply || reply.WineReferences == nil {
		t.Errorf("reply = %+v", reply)
	}
	if env.svc.AIConfigured() {
		t.Error("AIConfigured() = true")
	}
	if _, err := env.svc.AnalyzeLabel(context.Background(), inlineImage); !errors.Is(err, assistant.ErrNotConfigured) {
		t.Errorf("AnalyzeLabel error = %v, want ErrNotConfigured", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	stats, err := env.svc.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Wines != 3 {
		t.Errorf("Wines = %d, want 3", stats.Wines)
	}
}
