package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperengineering/cellar/internal/wine"
)

// SQLStore implements Store over database/sql. Queries are written with ?
// placeholders and rebound for drivers that number them.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

var _ Store = (*SQLStore)(nil)

func newSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying handle for maintenance tasks.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts ? placeholders to $1..$n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) timestamp() string {
	return s.now().Format(time.RFC3339)
}

// ListWines returns every wine not soft-deleted, ordered by producer.
func (s *SQLStore) ListWines(ctx context.Context) ([]wine.Wine, error) {
	return s.queryWines(ctx, `
		SELECT `+wineColumns+`
		FROM wines
		WHERE deleted_at IS NULL
		ORDER BY producer ASC, id ASC
	`)
}

// WinesWithInlineImages returns up to limit wines whose front or back image
// is still an inline data URL, oldest update first.
func (s *SQLStore) WinesWithInlineImages(ctx context.Context, limit int) ([]wine.Wine, error) {
	return s.queryWines(ctx, `
		SELECT `+wineColumns+`
		FROM wines
		WHERE deleted_at IS NULL
		  AND (front_image LIKE 'data:%' OR back_image LIKE 'data:%')
		ORDER BY updated_at ASC
		LIMIT ?
	`, limit)
}

func (s *SQLStore) queryWines(ctx context.Context, query string, args ...any) ([]wine.Wine, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query wines: %w", err)
	}
	defer rows.Close()

	wines := []wine.Wine{}
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		wines = append(wines, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return wines, nil
}

// GetWine retrieves a wine that has not been soft-deleted.
func (s *SQLStore) GetWine(ctx context.Context, id string) (*wine.Wine, error) {
	return s.getWine(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getWine(ctx context.Context, q queryRower, id string) (*wine.Wine, error) {
	row := q.QueryRowContext(ctx, s.rebind(`
		SELECT `+wineColumns+`
		FROM wines
		WHERE id = ? AND deleted_at IS NULL
	`), id)

	w, err := scanWine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return w, nil
}

func insertWineSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(wine.Fields)+4), ", ")
	return `INSERT INTO wines (` + wineColumns + `, created_at, updated_at) VALUES (` + placeholders + `)`
}

// CreateWine inserts w. The id must be set and unused, including by
// soft-deleted wines.
func (s *SQLStore) CreateWine(ctx context.Context, w wine.Wine) (*wine.Wine, error) {
	if w.ID == "" {
		return nil, ErrMissingID
	}
	w.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM wines WHERE id = ?`), w.ID).Scan(&exists)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrDuplicateWine, w.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check existing wine: %w", err)
	}

	now := s.timestamp()
	args := append([]any{w.ID, string(w.Origin)}, encodeWine(&w)...)
	args = append(args, now, now)
	if _, err := tx.ExecContext(ctx, s.rebind(insertWineSQL()), args...); err != nil {
		return nil, fmt.Errorf("insert wine: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &w, nil
}

// UpdateWine applies a partial update and returns the updated wine. Any
// schema field may be patched; an empty value clears it.
func (s *SQLStore) UpdateWine(ctx context.Context, id string, patch wine.Patch) (*wine.Wine, error) {
	sets, vals, err := patchColumns(patch)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE wines SET ` + strings.Join(sets, ", ") + `, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	args := append(vals, s.timestamp(), id)
	result, err := tx.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("update wine: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	} else if n == 0 {
		return nil, ErrNotFound
	}

	w, err := s.getWine(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return w, nil
}

// DeleteWine soft-deletes a wine. Its history, notes and images are kept so
// that RestoreWine brings it back intact.
func (s *SQLStore) DeleteWine(ctx context.Context, id string) error {
	now := s.timestamp()
	return s.execOne(ctx, `
		UPDATE wines SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
}

// RestoreWine clears a soft deletion.
func (s *SQLStore) RestoreWine(ctx context.Context, id string) error {
	return s.execOne(ctx, `
		UPDATE wines SET deleted_at = NULL, updated_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL
	`, s.timestamp(), id)
}

// execOne runs a statement expected to touch exactly one row.
func (s *SQLStore) execOne(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func upsertWineSQL() string {
	updates := make([]string, 0, len(wine.Fields)+3)
	updates = append(updates, "origin = excluded.origin")
	for _, f := range wine.Fields {
		updates = append(updates, f.Column+" = excluded."+f.Column)
	}
	updates = append(updates, "updated_at = excluded.updated_at", "deleted_at = NULL")
	return insertWineSQL() + ` ON CONFLICT (id) DO UPDATE SET ` + strings.Join(updates, ", ")
}

// ImportWines upserts wines by id in one transaction: existing rows are
// overwritten and undeleted. A non-empty origin overrides each wine's own.
// It returns the number of wines written.
func (s *SQLStore) ImportWines(ctx context.Context, wines []wine.Wine, origin wine.Origin) (int, error) {
	if len(wines) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertWineSQL()))
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := s.timestamp()
	for i, w := range wines {
		if w.ID == "" {
			return 0, fmt.Errorf("wine %d: %w", i, ErrMissingID)
		}
		if origin != "" {
			w.Origin = origin
		}
		w.Normalize()

		args := append([]any{w.ID, string(w.Origin)}, encodeWine(&w)...)
		args = append(args, now, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("upsert wine %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(wines), nil
}

// ConsumptionHistory returns the events for a wine, newest first.
func (s *SQLStore) ConsumptionHistory(ctx context.Context, wineID string) ([]wine.ConsumptionEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, consumed_on, notes
		FROM consumption_history
		WHERE wine_id = ?
		ORDER BY consumed_on DESC, created_at DESC
	`), wineID)
	if err != nil {
		return nil, fmt.Errorf("query consumption history: %w", err)
	}
	defer rows.Close()

	events := []wine.ConsumptionEvent{}
	for rows.Next() {
		var ev wine.ConsumptionEvent
		var notes sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Date, &notes); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ev.Notes = notes.String
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// AddConsumption records one bottle consumed. An empty event id is assigned.
func (s *SQLStore) AddConsumption(ctx context.Context, wineID string, ev wine.ConsumptionEvent) (*wine.ConsumptionEvent, error) {
	if ev.ID == "" {
		ev.ID = wine.NewConsumptionID()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO consumption_history (id, wine_id, consumed_on, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), ev.ID, wineID, ev.Date, ev.Notes, s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("insert consumption: %w", err)
	}
	return &ev, nil
}

// RemoveConsumption deletes one event of the given wine.
func (s *SQLStore) RemoveConsumption(ctx context.Context, wineID, consumptionID string) error {
	return s.execOne(ctx, `
		DELETE FROM consumption_history WHERE id = ? AND wine_id = ?
	`, consumptionID, wineID)
}

// ConsumptionCounts returns the number of recorded events per wine id.
func (s *SQLStore) ConsumptionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT wine_id, COUNT(*) FROM consumption_history GROUP BY wine_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query consumption counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return counts, nil
}

// UserNote returns the private note for a wine, empty when none exists.
func (s *SQLStore) UserNote(ctx context.Context, wineID string) (string, error) {
	return s.lookupText(ctx, `SELECT note FROM user_notes WHERE wine_id = ?`, wineID)
}

// SaveUserNote upserts the note; a blank note removes it.
func (s *SQLStore) SaveUserNote(ctx context.Context, wineID, note string) error {
	if strings.TrimSpace(note) == "" {
		_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM user_notes WHERE wine_id = ?`), wineID)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO user_notes (wine_id, note, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (wine_id) DO UPDATE SET note = excluded.note, updated_at = excluded.updated_at
	`), wineID, note, s.timestamp())
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

// PurchaseDate returns the purchase-date override for a wine, empty when
// none exists.
func (s *SQLStore) PurchaseDate(ctx context.Context, wineID string) (string, error) {
	return s.lookupText(ctx, `SELECT purchase_date FROM user_purchase_dates WHERE wine_id = ?`, wineID)
}

// SavePurchaseDate upserts the override; an empty date removes it.
func (s *SQLStore) SavePurchaseDate(ctx context.Context, wineID, date string) error {
	if date == "" {
		_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM user_purchase_dates WHERE wine_id = ?`), wineID)
		if err != nil {
			return fmt.Errorf("delete purchase date: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO user_purchase_dates (wine_id, purchase_date, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (wine_id) DO UPDATE SET purchase_date = excluded.purchase_date, updated_at = excluded.updated_at
	`), wineID, date, s.timestamp())
	if err != nil {
		return fmt.Errorf("save purchase date: %w", err)
	}
	return nil
}

// PurchaseDates returns every stored override keyed by wine id.
func (s *SQLStore) PurchaseDates(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT wine_id, purchase_date FROM user_purchase_dates`)
	if err != nil {
		return nil, fmt.Errorf("query purchase dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]string)
	for rows.Next() {
		var id, date string
		if err := rows.Scan(&id, &date); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		dates[id] = date
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return dates, nil
}

func (s *SQLStore) lookupText(ctx context.Context, query, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.rebind(query), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup: %w", err)
	}
	return v, nil
}

// Stats returns aggregate counts.
func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			COUNT(CASE WHEN deleted_at IS NULL THEN 1 END),
			COUNT(CASE WHEN deleted_at IS NULL AND origin = ? THEN 1 END),
			COUNT(CASE WHEN deleted_at IS NOT NULL THEN 1 END)
		FROM wines
	`), string(wine.OriginUser)).Scan(&st.Wines, &st.UserWines, &st.DeletedWines)
	if err != nil {
		return nil, fmt.Errorf("count wines: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consumption_history`).Scan(&st.ConsumptionEvents); err != nil {
		return nil, fmt.Errorf("count consumption: %w", err)
	}
	return &st, nil
}
