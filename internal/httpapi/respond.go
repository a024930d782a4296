package httpapi

import (
	"encoding/json"
	"net/http"

	"hyperfind/internal/apperr"
	"hyperfind/internal/logging"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Log.WithError(err).Error("httpapi: failed to encode response body")
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFromError maps an apperr.Kind to the HTTP status a client should see.
// Errors with no recognized kind are treated as internal failures.
func statusFromError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.BadConfig:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	case apperr.RetryableRemote, apperr.PermanentRemote, apperr.EmbeddingFailure, apperr.LLMUnavailable:
		return http.StatusBadGateway
	case apperr.PersistenceFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
