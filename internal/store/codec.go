package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperengineering/cellar/internal/wine"
)

// wineColumns is the select list shared by every wine query.
var wineColumns = func() string {
	cols := []string{"id", "origin"}
	for _, f := range wine.Fields {
		cols = append(cols, f.Column)
	}
	return strings.Join(cols, ", ")
}()

// encodeWine returns the schema field values of w in column order, mapping
// empty strings to NULL.
func encodeWine(w *wine.Wine) []any {
	vals := make([]any, len(wine.Fields))
	for i, f := range wine.Fields {
		vals[i] = nullable(f.Get(w))
	}
	return vals
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanWine decodes a row selected with wineColumns.
func scanWine(scanner interface{ Scan(...any) error }) (*wine.Wine, error) {
	var id, origin string
	cols := make([]sql.NullString, len(wine.Fields))
	dest := make([]any, 0, len(cols)+2)
	dest = append(dest, &id, &origin)
	for i := range cols {
		dest = append(dest, &cols[i])
	}

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	w := wine.Wine{ID: id, Origin: wine.Origin(origin)}
	for i, f := range wine.Fields {
		f.Set(&w, cols[i].String)
	}
	w.Normalize()
	return &w, nil
}

// patchColumns validates patch keys and returns the SET clause fragments and
// values in schema order.
func patchColumns(p wine.Patch) ([]string, []any, error) {
	if len(p) == 0 {
		return nil, nil, fmt.Errorf("%w: no fields to update", ErrInvalidPatch)
	}
	for key := range p {
		if _, ok := wine.FieldByJSON(key); !ok {
			return nil, nil, fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, key)
		}
	}

	keys := p.Keys()
	sets := make([]string, 0, len(keys))
	vals := make([]any, 0, len(keys))
	for _, key := range keys {
		f, _ := wine.FieldByJSON(key)
		sets = append(sets, f.Column+" = ?")
		vals = append(vals, nullable(p[key]))
	}
	return sets, vals, nil
}
