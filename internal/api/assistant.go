package api

import (
	"net/http"

	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/validation"
	"github.com/hyperengineering/cellar/internal/wine"
)

type chatRequest struct {
	Message string `json:"message"`
}

type analyzeLabelRequest struct {
	ImageData string `json:"imageData"`
}

type analyzeLabelResponse struct {
	Data wine.Wine `json:"data"`
}

// Chat handles POST /api/v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateChatMessage(req.Message); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Message is invalid", errs)
		return
	}

	reply, err := h.svc.Chat(r.Context(), req.Message)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// AnalyzeLabel handles POST /api/v1/analyze-label
func (h *Handler) AnalyzeLabel(w http.ResponseWriter, r *http.Request) {
	var req analyzeLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateLabelImage(req.ImageData); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Image is invalid", errs)
		return
	}

	extracted, err := h.svc.AnalyzeLabel(r.Context(), req.ImageData)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeLabelResponse{Data: extracted})
}

// ImportOverlay handles POST /api/v1/overlay/import. The body is an overlay
// exported from a browser or a previous install.
func (h *Handler) ImportOverlay(w http.ResponseWriter, r *http.Request) {
	st, err := overlay.Decode(r.Body)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid overlay: "+err.Error())
		return
	}

	report, err := h.svc.ImportOverlay(r.Context(), st)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
