// Package handlers implements the HTTP endpoint handlers over the
// application service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/app"
	"github.com/pausewise/pausewise/internal/domain"
	httpContracts "github.com/pausewise/pausewise/internal/http"
)

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	app     *app.Service
	version string
	driver  string
	started time.Time
}

// NewHandlers creates a handlers instance around the application service.
// The version and storage driver surface on the health endpoint.
func NewHandlers(service *app.Service, version, driver string) *Handlers {
	return &Handlers{
		app:     service,
		version: version,
		driver:  driver,
		started: time.Now(),
	}
}

// requestUser returns the user id the auth middleware resolved
func requestUser(r *http.Request) string {
	userID, _ := r.Context().Value("user_id").(string)
	return userID
}

// requestTier returns the authenticated tier, failing closed to free
func requestTier(r *http.Request) domain.Tier {
	tier, _ := r.Context().Value("user_tier").(string)
	return domain.ParseTier(tier)
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Fallback error response
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := r.Context().Value("request_id")
	if requestID == nil {
		requestID = "unknown"
	}

	errorResp := httpContracts.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID.(string),
		Timestamp: time.Now().UTC(),
	}

	h.writeJSON(w, status, errorResp)
}

// writeServiceError maps application errors onto API statuses. Anything
// unrecognized is a 500 and gets logged with its cause.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, r, http.StatusBadRequest, "validation_failed", err.Error())
	case domain.IsNoSavings(err):
		h.writeError(w, r, http.StatusUnprocessableEntity, "no_savings", err.Error())
	case errors.Is(err, domain.ErrEntryNotFound):
		h.writeError(w, r, http.StatusNotFound, "entry_not_found", err.Error())
	default:
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal_error",
			"Something went wrong handling the request")
	}
}

// decodeJSON parses the request body into dst, writing the 400 itself on
// malformed input
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return false
	}
	return true
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}
