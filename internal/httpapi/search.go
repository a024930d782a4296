package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"hyperfind/internal/apperr"
	"hyperfind/internal/bm25"
	"hyperfind/internal/cache"
	"hyperfind/internal/logging"
	"hyperfind/internal/queryproc"
)

const defaultPageSize = 10

// SearchHit is one document surfaced by /search, independent of which
// retrieval path produced it.
type SearchHit struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	Source     string  `json:"source,omitempty"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
}

// SearchResponse is /search's cached and returned payload.
type SearchResponse struct {
	Query   string      `json:"query"`
	Type    string      `json:"type"`
	Page    int         `json:"page"`
	Size    int         `json:"size"`
	Total   int         `json:"total"`
	Results []SearchHit `json:"results"`
}

// handleSearch serves GET /search?q=&type=bm25|semantic|fulltext|hybrid&page=&size=.
// type defaults to hybrid. Responses are cached by (type, query fingerprint,
// page, size) in the C14 result cache.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, apperr.Newf(apperr.BadConfig, "httpapi.handleSearch", "missing required query parameter q"))
		return
	}

	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = "hybrid"
	}
	page := intQueryParam(r, "page", 1)
	size := intQueryParam(r, "size", defaultPageSize)
	if s.MaxSearchResults > 0 && size > s.MaxSearchResults {
		size = s.MaxSearchResults
	}

	processed := queryproc.Process(q)
	cacheKey := cache.Key{Type: searchType, CacheKey: processed.CacheKey, Page: page, PageSize: size}

	var cached SearchResponse
	if ok, err := s.Cache.Get(ctx, cacheKey, &cached); err != nil {
		logging.Log.WithError(err).Warn("httpapi: search cache lookup failed, falling back to live query")
	} else if ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	var (
		hits  []SearchHit
		total int
		err   error
	)
	switch searchType {
	case "bm25":
		hits, total, err = s.searchBM25(ctx, processed, page, size)
	case "semantic":
		hits, total, err = s.searchSemantic(ctx, processed, page, size)
	case "fulltext":
		hits, total, err = s.searchFullText(ctx, processed, size)
	case "hybrid":
		hits, total, err = s.searchHybrid(ctx, processed, page, size)
	default:
		respondError(w, http.StatusBadRequest, apperr.Newf(apperr.BadConfig, "httpapi.handleSearch", "unknown search type %q", searchType))
		return
	}
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	s.recordAutocompleteTerms(ctx, processed)

	resp := SearchResponse{Query: q, Type: searchType, Page: page, Size: size, Total: total, Results: hits}
	if err := s.Cache.Set(ctx, cacheKey, total, resp); err != nil {
		logging.Log.WithError(err).Warn("httpapi: search cache write failed")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) searchBM25(ctx context.Context, p queryproc.Processed, page, size int) ([]SearchHit, int, error) {
	scored, err := s.BM25.Score(ctx, p.Tokens)
	if err != nil {
		return nil, 0, err
	}
	paged, total := bm25.Paginate(scored, page, size)

	hits := make([]SearchHit, 0, len(paged))
	for _, sc := range paged {
		hit := SearchHit{DocumentID: sc.DocID, Score: sc.Score}
		if doc, ok, err := s.Documents.GetByID(ctx, sc.DocID); err == nil && ok {
			hit.Title = doc.Title
			hit.URL = doc.URL
			hit.Source = doc.Source
			hit.Snippet = bm25.Snippet(doc.CleanText, p.RawTokens, s.Ranking.SnippetWindow)
		}
		hits = append(hits, hit)
	}
	return hits, total, nil
}

// searchFullText serves the Postgres/in-memory FTS-backed lexical path,
// independent of the BM25 term index: it runs ts_rank (or, in memory, a term
// count) directly over document text via store.FullTextSearch. Unlike bm25
// and hybrid it has no stable total-count notion beyond "len(results)", since
// the backend doesn't expose one without a second query.
func (s *Server) searchFullText(ctx context.Context, p queryproc.Processed, size int) ([]SearchHit, int, error) {
	if s.FullText == nil {
		return nil, 0, apperr.Newf(apperr.BadConfig, "httpapi.searchFullText", "fulltext search backend is not configured")
	}
	results, err := s.FullText.Search(ctx, p.Cleaned, size)
	if err != nil {
		return nil, 0, err
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hit := SearchHit{DocumentID: r.ID, Score: r.Score, Snippet: r.Snippet}
		if doc, ok, err := s.Documents.GetByID(ctx, r.ID); err == nil && ok {
			hit.Title = doc.Title
			hit.URL = doc.URL
			hit.Source = doc.Source
		}
		hits = append(hits, hit)
	}
	return hits, len(hits), nil
}

func (s *Server) searchSemantic(ctx context.Context, p queryproc.Processed, page, size int) ([]SearchHit, int, error) {
	results, total, err := s.Semantic.Search(ctx, p.Cleaned, page, size, nil)
	if err != nil {
		return nil, 0, err
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hit := SearchHit{DocumentID: r.DocID, Score: r.Score, Snippet: r.Snippet}
		if doc, ok, err := s.Documents.GetByID(ctx, r.DocID); err == nil && ok {
			hit.Title = doc.Title
			hit.URL = doc.URL
			hit.Source = doc.Source
		}
		hits = append(hits, hit)
	}
	return hits, total, nil
}

// searchHybrid runs the fused BM25+semantic ranking path. As documented on
// hybrid.Ranker.Rank, the caller owns snippet extraction: it runs its own
// BM25 pass over the full candidate set and builds the snippets the ranker
// then attaches to fused results.
func (s *Server) searchHybrid(ctx context.Context, p queryproc.Processed, page, size int) ([]SearchHit, int, error) {
	maxResults := s.MaxSearchResults
	if maxResults <= 0 {
		maxResults = 100
	}

	snippets, err := s.bm25Snippets(ctx, p, maxResults)
	if err != nil {
		return nil, 0, err
	}

	results, total, err := s.Hybrid.Rank(ctx, p.Tokens, p.Cleaned, page, size, maxResults, nil, snippets)
	if err != nil {
		return nil, 0, err
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hit := SearchHit{DocumentID: r.DocID, Score: r.RRFScore, Snippet: r.Snippet}
		if doc, ok, err := s.Documents.GetByID(ctx, r.DocID); err == nil && ok {
			hit.Title = doc.Title
			hit.URL = doc.URL
			hit.Source = doc.Source
		}
		hits = append(hits, hit)
	}
	return hits, total, nil
}

func (s *Server) bm25Snippets(ctx context.Context, p queryproc.Processed, maxResults int) (map[string]string, error) {
	scored, err := s.BM25.Score(ctx, p.Tokens)
	if err != nil {
		return nil, err
	}
	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	snippets := make(map[string]string, len(scored))
	for _, sc := range scored {
		doc, ok, err := s.Documents.GetByID(ctx, sc.DocID)
		if err != nil || !ok {
			continue
		}
		snippets[sc.DocID] = bm25.Snippet(doc.CleanText, p.RawTokens, s.Ranking.SnippetWindow)
	}
	return snippets, nil
}

// recordAutocompleteTerms feeds every raw query token into the autocomplete
// term store, best-effort: a failure here never affects the search response.
func (s *Server) recordAutocompleteTerms(ctx context.Context, p queryproc.Processed) {
	if s.Autocomplete == nil {
		return
	}
	for _, t := range p.RawTokens {
		if err := s.Autocomplete.RecordQuery(ctx, t); err != nil {
			logging.Log.WithError(err).WithField("term", t).Warn("httpapi: failed to record autocomplete term")
		}
	}
}

func intQueryParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
