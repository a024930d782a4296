// Package httpapi exposes hyperfind's search, RAG, autocomplete, crawl, and
// document management surface over HTTP, grounded on the teacher's
// internal/httpapi server: a stdlib http.ServeMux with Go 1.22+
// pattern-based routing and a shared respondJSON/respondError/
// statusFromError helper trio.
package httpapi

import (
	"net/http"

	"hyperfind/internal/autocomplete"
	"hyperfind/internal/bm25"
	"hyperfind/internal/cache"
	"hyperfind/internal/config"
	"hyperfind/internal/crawl"
	"hyperfind/internal/crawler"
	"hyperfind/internal/hybrid"
	"hyperfind/internal/indexworker"
	"hyperfind/internal/rag"
	"hyperfind/internal/semantic"
	"hyperfind/internal/store"
)

// Server bundles every retrieval, generation, crawl, and persistence
// collaborator the HTTP surface dispatches to, and owns the route table.
type Server struct {
	BM25         *bm25.Scorer
	Semantic     *semantic.Searcher
	Hybrid       *hybrid.Ranker
	Facade       *rag.Facade
	Controller   *rag.Controller
	Autocomplete *autocomplete.Manager
	Orchestrator *crawl.Orchestrator
	Worker       *indexworker.Worker
	Jobs         store.CrawlJobStore
	Documents    store.DocumentStore
	FullText     store.FullTextSearch
	Cache        cache.ResultCache
	// Crawlers maps a crawl job's "source" field to the crawler.Crawler that
	// serves it, e.g. "wikipedia" -> wikipedia.New(...).
	Crawlers map[string]crawler.Crawler
	Ranking  config.RankingDefaults

	MaxSearchResults int

	mux *http.ServeMux
}

// NewServer constructs a Server and registers its routes.
func NewServer(s *Server) *Server {
	s.mux = http.NewServeMux()
	s.registerRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /search/rag", s.handleSearchRAG)
	s.mux.HandleFunc("GET /autocomplete", s.handleAutocomplete)

	s.mux.HandleFunc("POST /crawl", s.handleCreateCrawl)
	s.mux.HandleFunc("GET /crawl/jobs", s.handleListCrawlJobs)
	s.mux.HandleFunc("GET /crawl/jobs/{id}", s.handleGetCrawlJob)
	s.mux.HandleFunc("POST /crawl/jobs/{id}/cancel", s.handleCancelCrawlJob)

	s.mux.HandleFunc("GET /documents", s.handleListDocuments)
	s.mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	s.mux.HandleFunc("POST /documents", s.handleCreateDocument)

	s.mux.HandleFunc("GET /health", s.handleHealth)
}
