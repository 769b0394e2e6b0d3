package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mra-2007/TransitTrack/internal/models"
	"github.com/mra-2007/TransitTrack/internal/repository"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Cache-Control values by how quickly the data changes
const (
	cacheStatic = "public, max-age=60"
	cacheLive   = "no-store"
)

func writeJSON(w http.ResponseWriter, status int, cacheControl string, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
		w.Header().Set("Vary", "Accept-Encoding")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Warnf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	writeJSON(w, status, "", ErrorResponse{Error: message, Details: details})
}

// writeStoreError maps ErrNotFound to 404 and anything else to 500
func writeStoreError(w http.ResponseWriter, err error, notFoundMessage, failMessage string, details map[string]interface{}) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMessage, details)
		return
	}

	zap.S().Errorf("%s: %v", failMessage, err)
	writeError(w, http.StatusInternalServerError, failMessage, map[string]interface{}{
		"internal": err.Error(),
	})
}

// validatable is implemented by the models.Insert* payloads
type validatable interface {
	Validate() error
}

// decodeBody reads a JSON payload into dst and validates it. On failure the 400 response
// has already been written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	if err := dst.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", models.ValidationError(err))
		return false
	}
	return true
}
