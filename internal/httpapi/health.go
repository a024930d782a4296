package httpapi

import "net/http"

// handleHealth serves GET /health: a liveness probe with no collaborator
// dependency, so a partially-degraded backend (e.g. an unreachable LLM
// provider, which already degrades gracefully per-request) never reports
// unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
