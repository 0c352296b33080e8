package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/cellar/internal/cellar"
)

// Handler implements the API handlers
type Handler struct {
	svc     *cellar.Service
	version string
}

// NewHandler creates a new Handler over the collection service.
func NewHandler(svc *cellar.Service, version string) *Handler {
	return &Handler{
		svc:     svc,
		version: version,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	Wines             int64  `json:"wines"`
	UserWines         int64  `json:"userWines"`
	DeletedWines      int64  `json:"deletedWines"`
	ConsumptionEvents int64  `json:"consumptionEvents"`
	AssistantEnabled  bool   `json:"assistantEnabled"`
	ImageStorage      bool   `json:"imageStorage"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Health(r.Context())
	if err != nil {
		slog.Error("health check failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		Version:           h.version,
		Wines:             stats.Wines,
		UserWines:         stats.UserWines,
		DeletedWines:      stats.DeletedWines,
		ConsumptionEvents: stats.ConsumptionEvents,
		AssistantEnabled:  h.svc.AIConfigured(),
		ImageStorage:      h.svc.ImagesEnabled(),
	})
}

// successResponse acknowledges a write with no other result.
type successResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// decodeJSON reads the request body into v. On failure it writes the
// problem response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		MapError(w, r, err)
		return false
	}
	WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
	return false
}
