package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/cellar/internal/observability"
)

// bearerToken returns the credential of an "Authorization: Bearer" header,
// or "" when the header is absent or uses another scheme. The scheme match
// is case-sensitive.
func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// keyMatches compares a presented key with the configured one in constant
// time. An empty presented key never matches.
func keyMatches(presented, configured string) bool {
	if presented == "" || len(presented) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

// AuthMiddleware rejects requests without the configured bearer key with a
// 401 problem. The configured key is never logged or echoed.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyMatches(bearerToken(r), apiKey) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Warn("auth failure",
				"component", "api",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_ip", r.RemoteAddr,
			)
			WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")
		})
	}
}

// LoggingMiddleware logs HTTP requests and records their duration by
// route pattern.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := routePattern(r)
		observability.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())

		slog.Info("request",
			"component", "api",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// routePattern returns the matched chi pattern, keeping metric label
// cardinality independent of wine ids.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusRecorder remembers the first status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	return sr.ResponseWriter.Write(b)
}

// RecoveryMiddleware turns a handler panic into a 500 problem. The panic
// value and stack go to the log only. http.ErrAbortHandler is re-raised so
// net/http can abort the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			switch recovered {
			case nil:
				return
			case http.ErrAbortHandler:
				panic(recovered)
			}
			slog.Error("handler panic",
				"component", "api",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"error", recovered,
				"stack", string(debug.Stack()),
			)
			WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		}()
		next.ServeHTTP(w, r)
	})
}
