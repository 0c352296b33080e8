package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/cellar/internal/validation"
)

// maxWineIDLength bounds the {id} path parameter.
const maxWineIDLength = 128

// wineIDContextKey is the context key for the resolved wine ID.
type wineIDContextKey struct{}

// WithWineID returns a new context with the wine ID attached.
func WithWineID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, wineIDContextKey{}, id)
}

// WineIDFromContext extracts the wine ID from the context.
// Returns "" if not present.
func WineIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(wineIDContextKey{}).(string)
	return id
}

// WineIDMiddleware resolves the {id} path parameter, rejects malformed
// values with 400 and attaches the ID to the request context.
func WineIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var c validation.Collector
		if c.Required("id", id) {
			c.Text("id", id, maxWineIDLength)
		}
		if c.HasErrors() {
			WriteProblem(w, r, http.StatusBadRequest, "Invalid wine id: "+c.Errors()[0].Message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithWineID(r.Context(), id)))
	})
}
