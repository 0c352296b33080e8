package api

import (
	"net/http"
	"strconv"

	"github.com/hyperengineering/cellar/internal/catalog"
	"github.com/hyperengineering/cellar/internal/similarity"
	"github.com/hyperengineering/cellar/internal/validation"
	"github.com/hyperengineering/cellar/internal/wine"
)

// maxSimilarLimit caps GET /wines/{id}/similar?limit.
const maxSimilarLimit = 50

type wineResponse struct {
	Wine *wine.Wine `json:"wine"`
}

// importRequest is the bulk import body. BulkImport marks it when posted to
// /wines instead of /wines/import.
type importRequest struct {
	BulkImport  bool             `json:"bulkImport"`
	Wines       []map[string]any `json:"wines"`
	IsUserAdded bool             `json:"isUserAdded"`
}

type actionRequest struct {
	Action string `json:"action"`
}

// ListWines handles GET /api/v1/wines
func (h *Handler) ListWines(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.QueryFromValues(r.URL.Query())
	if err != nil {
		MapError(w, r, err)
		return
	}
	listing, err := h.svc.List(r.Context(), q)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Facets handles GET /api/v1/wines/facets
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Facets(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

// AddWine handles POST /api/v1/wines. A body with "bulkImport": true is
// treated as an import.
func (h *Handler) AddWine(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeJSON(w, r, &body) {
		return
	}

	if bulk, _ := body["bulkImport"].(bool); bulk {
		req := importRequest{BulkImport: true}
		req.IsUserAdded, _ = body["isUserAdded"].(bool)
		rows, _ := body["wines"].([]any)
		for _, row := range rows {
			if values, ok := row.(map[string]any); ok {
				req.Wines = append(req.Wines, values)
			}
		}
		h.importWines(w, r, req)
		return
	}

	nw := wine.FromValues(body)
	if errs := validation.ValidateNewWine(nw); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Wine contains invalid fields", errs)
		return
	}

	created, err := h.svc.Add(r.Context(), nw)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wineResponse{Wine: created})
}

// ImportWines handles POST /api/v1/wines/import
func (h *Handler) ImportWines(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.importWines(w, r, req)
}

func (h *Handler) importWines(w http.ResponseWriter, r *http.Request, req importRequest) {
	wines := make([]wine.Wine, 0, len(req.Wines))
	for _, values := range req.Wines {
		wines = append(wines, wine.FromRecord(values))
	}
	if errs := validation.ValidateImport(wines); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Import contains invalid wines", errs)
		return
	}

	n, err := h.svc.Import(r.Context(), wines, req.IsUserAdded)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &n})
}

// GetWine handles GET /api/v1/wines/{id}
func (h *Handler) GetWine(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Get(r.Context(), WineIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wineResponse{Wine: found})
}

// UpdateWine handles PATCH /api/v1/wines/{id}
func (h *Handler) UpdateWine(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeJSON(w, r, &body) {
		return
	}
	patch, err := wine.PatchFromValues(body)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if errs := validation.ValidatePatch(patch); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Update contains invalid fields", errs)
		return
	}

	updated, err := h.svc.Update(r.Context(), WineIDFromContext(r.Context()), patch)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wineResponse{Wine: updated})
}

// DeleteWine handles DELETE /api/v1/wines/{id}. With ?purge=true stored
// label images are removed too.
func (h *Handler) DeleteWine(w http.ResponseWriter, r *http.Request) {
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))
	if err := h.svc.Delete(r.Context(), WineIDFromContext(r.Context()), purge); err != nil {
		MapError(w, r, err)
		return
	}
	writeSuccess(w)
}

// WineAction handles PUT /api/v1/wines/{id}. The only action is "restore".
func (h *Handler) WineAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var c validation.Collector
	if !c.OneOf("action", req.Action, "restore") {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid action: "+c.Errors()[0].Error())
		return
	}

	if err := h.svc.Restore(r.Context(), WineIDFromContext(r.Context())); err != nil {
		MapError(w, r, err)
		return
	}
	writeSuccess(w)
}

type similarResponse struct {
	Matches []similarity.Match `json:"matches"`
}

// SimilarWines handles GET /api/v1/wines/{id}/similar
func (h *Handler) SimilarWines(w http.ResponseWriter, r *http.Request) {
	limit := similarity.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSimilarLimit {
			WriteProblem(w, r, http.StatusBadRequest,
				"limit must be an integer between 1 and "+strconv.Itoa(maxSimilarLimit))
			return
		}
		limit = n
	}

	matches, err := h.svc.Similar(r.Context(), WineIDFromContext(r.Context()), limit)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{Matches: matches})
}
