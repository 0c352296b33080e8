package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/cellar/internal/assistant"
	"github.com/hyperengineering/cellar/internal/catalog"
	"github.com/hyperengineering/cellar/internal/cellar"
	"github.com/hyperengineering/cellar/internal/store"
	"github.com/hyperengineering/cellar/internal/validation"
	"github.com/hyperengineering/cellar/internal/wine"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

const problemBase = "https://cellar.hyperengineering.dev/errors/"

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusBadRequest:            {problemBase + "bad-request", "Bad Request"},
	http.StatusUnauthorized:          {problemBase + "unauthorized", "Unauthorized"},
	http.StatusNotFound:              {problemBase + "not-found", "Not Found"},
	http.StatusConflict:              {problemBase + "conflict", "Conflict"},
	http.StatusRequestEntityTooLarge: {problemBase + "payload-too-large", "Payload Too Large"},
	http.StatusUnprocessableEntity:   {problemBase + "validation-error", "Validation Error"},
	http.StatusTooManyRequests:       {problemBase + "rate-limit", "Too Many Requests"},
	http.StatusInternalServerError:   {problemBase + "internal-error", "Internal Server Error"},
	http.StatusBadGateway:            {problemBase + "upstream-error", "Bad Gateway"},
	http.StatusServiceUnavailable:    {problemBase + "service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt.typeURI = problemBase + "unknown"
		pt.title = http.StatusText(status)
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Wine not found")
	case errors.Is(err, store.ErrDuplicateWine):
		WriteProblem(w, r, http.StatusConflict, "A wine with this id already exists")
	case errors.Is(err, cellar.ErrNoBottlesRemaining):
		WriteProblem(w, r, http.StatusConflict, "No bottles of this wine remain")
	case errors.Is(err, store.ErrInvalidPatch),
		errors.Is(err, store.ErrMissingID),
		errors.Is(err, wine.ErrUnknownField),
		errors.Is(err, catalog.ErrInvalidQuery):
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, assistant.ErrInvalidImage):
		WriteProblem(w, r, http.StatusBadRequest, "Image must be a base64 data URL")
	case errors.Is(err, assistant.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Assistant is not configured")
	case errors.Is(err, assistant.ErrUnparseableResponse), errors.Is(err, assistant.ErrEmptyResponse):
		WriteProblem(w, r, http.StatusBadGateway, "Assistant returned an unusable response")
	case errors.Is(err, assistant.ErrUpstream):
		WriteProblem(w, r, http.StatusBadGateway, "Assistant is unavailable")
	case errors.As(err, &tooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		slog.Error("request failed",
			"component", "api",
			"path", r.URL.Path,
			"method", r.Method,
			"error", err,
		)
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
