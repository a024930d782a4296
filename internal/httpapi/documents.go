package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hyperfind/internal/apperr"
	"hyperfind/internal/logging"
	"hyperfind/internal/store"
)

// createDocumentRequest is POST /documents's request body, for ingesting a
// document directly (already-cleaned text from an external pipeline) without
// going through a crawler.
type createDocumentRequest struct {
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	CleanText string            `json:"cleanText"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Documents.ListAll(r.Context())
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, ok, err := s.Documents.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, apperr.Newf(apperr.NotFound, "httpapi.handleGetDocument", "document %q not found", id))
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// handleCreateDocument serves POST /documents: it inserts doc directly (no
// crawl, no dedupe) and kicks a background term+vector index pass so the
// document is searchable without waiting on a scheduled full reindex.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, apperr.New(apperr.BadConfig, "httpapi.handleCreateDocument", err))
		return
	}
	if req.URL == "" || req.CleanText == "" {
		respondError(w, http.StatusBadRequest, apperr.Newf(apperr.BadConfig, "httpapi.handleCreateDocument", "url and cleanText are required"))
		return
	}

	doc := store.Document{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Title:     req.Title,
		CleanText: req.CleanText,
		Source:    req.Source,
		Metadata:  req.Metadata,
		CreatedAt: time.Now(),
	}
	if err := s.Documents.Insert(r.Context(), doc); err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	if s.Worker != nil {
		docID := doc.ID
		go func() {
			if err := s.Worker.IndexDocument(context.Background(), docID); err != nil {
				logging.Log.WithError(err).WithField("docId", docID).Error("httpapi: background indexing of submitted document failed")
			}
		}()
	}

	respondJSON(w, http.StatusCreated, doc)
}
