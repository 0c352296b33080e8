package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/cellar/internal/validation"
	"github.com/hyperengineering/cellar/internal/wine"
)

type consumptionRequest struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

type historyResponse struct {
	History []wine.ConsumptionEvent `json:"history"`
}

type eventResponse struct {
	Event *wine.ConsumptionEvent `json:"event"`
}

type noteBody struct {
	Note string `json:"note"`
}

type purchaseDateBody struct {
	PurchaseDate string `json:"purchaseDate"`
}

// ConsumptionHistory handles GET /api/v1/wines/{id}/consumption
func (h *Handler) ConsumptionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context(), WineIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	if history == nil {
		history = []wine.ConsumptionEvent{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: history})
}

// LogConsumption handles POST /api/v1/wines/{id}/consumption
func (h *Handler) LogConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateConsumption(req.Date, req.Notes); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Consumption event contains invalid fields", errs)
		return
	}

	ev, err := h.svc.LogConsumption(r.Context(), WineIDFromContext(r.Context()), req.Date, req.Notes)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{Event: ev})
}

// RemoveConsumption handles DELETE /api/v1/wines/{id}/consumption/{consumptionID}
func (h *Handler) RemoveConsumption(w http.ResponseWriter, r *http.Request) {
	consumptionID := chi.URLParam(r, "consumptionID")
	if err := h.svc.RemoveConsumption(r.Context(), WineIDFromContext(r.Context()), consumptionID); err != nil {
		MapError(w, r, err)
		return
	}
	writeSuccess(w)
}

// GetNote handles GET /api/v1/wines/{id}/notes
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Note(r.Context(), WineIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noteBody{Note: note})
}

// SaveNote handles POST /api/v1/wines/{id}/notes. An empty note deletes it.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req noteBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNote(req.Note); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Note is invalid", errs)
		return
	}

	if err := h.svc.SaveNote(r.Context(), WineIDFromContext(r.Context()), req.Note); err != nil {
		MapError(w, r, err)
		return
	}
	writeSuccess(w)
}

// GetPurchaseDate handles GET /api/v1/wines/{id}/purchase-date
func (h *Handler) GetPurchaseDate(w http.ResponseWriter, r *http.Request) {
	date, err := h.svc.PurchaseDate(r.Context(), WineIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseDateBody{PurchaseDate: date})
}

// SavePurchaseDate handles POST /api/v1/wines/{id}/purchase-date. An empty
// date removes the override.
func (h *Handler) SavePurchaseDate(w http.ResponseWriter, r *http.Request) {
	var req purchaseDateBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidatePurchaseDate(req.PurchaseDate); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Purchase date is invalid", errs)
		return
	}

	if err := h.svc.SavePurchaseDate(r.Context(), WineIDFromContext(r.Context()), req.PurchaseDate); err != nil {
		MapError(w, r, err)
		return
	}
	writeSuccess(w)
}
