package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
	"hyperfind/internal/logging"
	"hyperfind/internal/store"
)

// createCrawlRequest is POST /crawl's request body: source names a
// registered crawler.Crawler (e.g. "wikipedia", "reddit", "hackernews",
// "custom"); config is passed through to that crawler's ValidateConfig.
type createCrawlRequest struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
}

// handleCreateCrawl serves POST /crawl: it creates a pending CrawlJob and
// starts the crawl in the background, returning immediately with the job
// record so the caller polls /crawl/jobs/{id} for progress.
func (s *Server) handleCreateCrawl(w http.ResponseWriter, r *http.Request) {
	var req createCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, apperr.New(apperr.BadConfig, "httpapi.handleCreateCrawl", err))
		return
	}

	c, ok := s.Crawlers[req.Source]
	if !ok {
		respondError(w, http.StatusBadRequest, apperr.Newf(apperr.BadConfig, "httpapi.handleCreateCrawl", "unsupported crawl source %q", req.Source))
		return
	}

	job, err := s.Jobs.Create(r.Context(), store.CrawlJob{ID: uuid.NewString(), Source: req.Source, Config: req.Config})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	go s.runCrawl(job.ID, c, req.Config)

	respondJSON(w, http.StatusAccepted, job)
}

// runCrawl drives the orchestrator for jobID on a background context
// independent of the triggering request, then kicks a full reindex so newly
// crawled documents become searchable without a separate scheduled job.
func (s *Server) runCrawl(jobID string, c crawler.Crawler, rawConfig map[string]any) {
	ctx := context.Background()
	if err := s.Orchestrator.Run(ctx, jobID, c, rawConfig); err != nil {
		logging.Log.WithError(err).WithField("job", jobID).Error("httpapi: crawl job failed")
		return
	}
	if s.Worker == nil {
		return
	}
	if err := s.Worker.FullReindex(ctx); err != nil {
		logging.Log.WithError(err).WithField("job", jobID).Error("httpapi: post-crawl reindex failed")
	}
}

func (s *Server) handleListCrawlJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Jobs.List(r.Context())
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetCrawlJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, apperr.Newf(apperr.NotFound, "httpapi.handleGetCrawlJob", "job %q not found", id))
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelCrawlJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Jobs.Cancel(r.Context(), id); err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	job, _, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
