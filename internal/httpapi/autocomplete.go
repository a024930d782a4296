package httpapi

import "net/http"

// autocompleteResponse is GET /autocomplete's response payload.
type autocompleteResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

// handleAutocomplete serves GET /autocomplete?q=&limit=, returning up to
// limit (default 10) terms from the C10 trie that start with q.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	limit := intQueryParam(r, "limit", 10)

	suggestions, err := s.Autocomplete.SearchPrefix(r.Context(), prefix, limit)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, autocompleteResponse{Prefix: prefix, Suggestions: suggestions})
}
