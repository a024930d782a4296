package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"hyperfind/internal/apperr"
	"hyperfind/internal/logging"
)

// defaultRecursiveDepth is the follow-up refinement depth used when
// recursive is true but maxDepth is unset.
const defaultRecursiveDepth = 2

// ragRequest is POST /search/rag's request body.
type ragRequest struct {
	Query     string `json:"query"`
	Recursive bool   `json:"recursive"`
	MaxDepth  int    `json:"maxDepth"`
	TopK      int    `json:"topK"`
	Stream    bool   `json:"stream"`
}

// handleSearchRAG serves POST /search/rag. recursive selects between the
// bounded recursive RAG controller (C9), which iterates follow-up queries up
// to maxDepth (clamped to 3, defaulting to 2), and a single retrieve-then-
// generate pass, which always reports depth 0. stream is only honored on the
// single-pass path, matching the retrieval/generation split the recursive
// loop doesn't support mid-refinement; it switches the response from
// buffered JSON to a text/plain token stream from the LLM.
func (s *Server) handleSearchRAG(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, apperr.New(apperr.BadConfig, "httpapi.handleSearchRAG", err))
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, apperr.Newf(apperr.BadConfig, "httpapi.handleSearchRAG", "query must not be empty"))
		return
	}

	if !req.Recursive {
		req.MaxDepth = 0
	} else if req.MaxDepth <= 0 {
		req.MaxDepth = defaultRecursiveDepth
	}

	if !req.Recursive && req.Stream {
		s.streamSearchRAG(w, r, req)
		return
	}

	answer, err := s.Controller.Run(r.Context(), req.Query, req.MaxDepth, req.TopK)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, answer)
}

// streamSearchRAG serves the single-pass, text/plain token-stream branch of
// /search/rag. It writes headers before the first token goes out, since the
// status/body can't be revised once streaming starts.
func (s *Server) streamSearchRAG(w http.ResponseWriter, r *http.Request, req ragRequest) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Search-Type", "rag_stream")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	handler := func(delta string) error {
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	if _, err := s.Controller.GenerateStream(r.Context(), req.Query, req.TopK, handler); err != nil {
		logging.Log.WithError(err).Warn("httpapi: RAG token stream ended with an error")
	}
}
