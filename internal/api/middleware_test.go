package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

const testAPIKey = "test-secret-key-12345"

// captureLogs redirects slog output for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

// mockHandler is a simple handler that records if it was called
func mockHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}), &called
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantCalled bool
		wantStatus int
	}{
		{"valid token", "Bearer " + testAPIKey, true, http.StatusOK},
		{"missing header", "", false, http.StatusUnauthorized},
		{"wrong token", "Bearer wrong-token", false, http.StatusUnauthorized},
		{"no bearer prefix", testAPIKey, false, http.StatusUnauthorized},
		{"lowercase scheme", "bearer " + testAPIKey, false, http.StatusUnauthorized},
		{"empty token", "Bearer ", false, http.StatusUnauthorized},
		{"whitespace token", "Bearer    ", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			handler, called := mockHandler()
			mw := AuthMiddleware(testAPIKey)(handler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/wines", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if *called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", *called, tt.wantCalled)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddleware_ResponseFormat_RFC7807(t *testing.T) {
	logs := captureLogs(t)
	handler, _ := mockHandler()
	mw := AuthMiddleware(testAPIKey)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wines", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if p.Status != http.StatusUnauthorized || p.Instance != "/api/v1/wines" {
		t.Errorf("problem = %+v", p)
	}
	if strings.Contains(w.Body.String(), testAPIKey) || strings.Contains(logs.String(), testAPIKey) {
		t.Error("expected API key leaked into response or logs")
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"Bearer abc":      "abc",
		"Bearer  abc  ":   "abc",
		"Basic dXNlcjpw":  "",
		"Bearerabc":       "",
		"Token something": "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestKeyMatches(t *testing.T) {
	if !keyMatches("abc", "abc") {
		t.Error("keyMatches(abc, abc) = false")
	}
	if keyMatches("abc", "abd") || keyMatches("abc", "abcd") || keyMatches("", "a") || keyMatches("", "") {
		t.Error("keyMatches matched different or empty keys")
	}
}

func TestLoggingMiddleware_NoAuthHeaderLeak(t *testing.T) {
	logs := captureLogs(t)

	r := chi.NewRouter()
	r.Use(LoggingMiddleware)
	r.Get("/api/v1/wines/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wines/42", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := logs.String()
	if strings.Contains(out, testAPIKey) {
		t.Error("log output contains the API key")
	}
	if !strings.Contains(out, "msg=request") {
		t.Errorf("expected request log line, got %q", out)
	}
	if !strings.Contains(out, "status=418") {
		t.Errorf("expected captured status in log, got %q", out)
	}
	if !strings.Contains(out, "route=/api/v1/wines/{id}") {
		t.Errorf("expected route pattern in log, got %q", out)
	}
}

func TestAuthMiddleware_HealthBypass_ViaRoutes(t *testing.T) {
	captureLogs(t)
	called := make(map[string]bool)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			called["health"] = true
		})
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(testAPIKey))
			r.Get("/wines", func(w http.ResponseWriter, r *http.Request) {
				called["wines"] = true
			})
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK || !called["health"] {
		t.Errorf("health without auth: status = %d, called = %v", w.Code, called["health"])
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wines", nil))
	if w.Code != http.StatusUnauthorized || called["wines"] {
		t.Errorf("wines without auth: status = %d, called = %v", w.Code, called["wines"])
	}
}

func TestRecoveryMiddleware_Panic(t *testing.T) {
	logs := captureLogs(t)

	mw := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("corked bottle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wines", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response as RFC 7807: %v", err)
	}
	if p.Type != problemBase+"internal-error" {
		t.Errorf("type = %q", p.Type)
	}
	if strings.Contains(w.Body.String(), "corked bottle") {
		t.Error("panic message leaked to client")
	}
	if !strings.Contains(logs.String(), "handler panic") || !strings.Contains(logs.String(), "corked bottle") {
		t.Error("expected panic to be logged")
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler, called := mockHandler()
	w := httptest.NewRecorder()
	RecoveryMiddleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !*called || w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("passthrough failed: called=%v status=%d body=%q", *called, w.Code, w.Body.String())
	}
}

// --- RateLimiter Tests ---

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst requests rejected")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within burst window allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other client limited by first client's bucket")
	}

	// One token per second at 60/min.
	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("request after refill rejected")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for range 100 {
		if !rl.Allow("10.0.0.1") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(visitorTTL + 2*time.Minute)
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("idle client not swept")
	}
	if len(rl.visitors) != 1 {
		t.Errorf("visitors = %d, want 1", len(rl.visitors))
	}
}

func TestRateLimiter_Middleware429(t *testing.T) {
	captureLogs(t)
	rl := NewRateLimiter(1, 1)
	handler, _ := mockHandler()
	mw := rl.Middleware(handler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	if got := clientKey(req); got != "192.0.2.7" {
		t.Errorf("clientKey = %q, want 192.0.2.7", got)
	}
	req.RemoteAddr = "192.0.2.8"
	if got := clientKey(req); got != "192.0.2.8" {
		t.Errorf("clientKey = %q, want 192.0.2.8", got)
	}
}
