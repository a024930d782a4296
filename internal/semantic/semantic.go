// Package semantic implements the semantic nearest-neighbor searcher (C6):
// embed the query, fetch nearest chunks, and deduplicate to one best chunk
// per document.
package semantic

import (
	"context"
	"sort"
	"strconv"
	"time"

	"hyperfind/internal/embedder"
	"hyperfind/internal/logging"
	"hyperfind/internal/obs"
	"hyperfind/internal/store"
)

const defaultSnippetLen = 250

// Result is one document's best-chunk semantic match.
type Result struct {
	DocID   string
	Score   float64 // 1 - cosine distance; higher is more similar
	Snippet string
	Text    string
}

// Searcher embeds queries and ranks documents by their single
// best-scoring chunk.
type Searcher struct {
	Embedder embedder.Embedder
	Vectors  store.VectorStore
	// Metrics records query latency and result-set size. Nil disables
	// instrumentation.
	Metrics obs.Metrics
}

// NewSearcher constructs a Searcher.
func NewSearcher(emb embedder.Embedder, vectors store.VectorStore) *Searcher {
	return &Searcher{Embedder: emb, Vectors: vectors}
}

// Search embeds query, retrieves the 5*size nearest chunks, keeps each
// document's single best chunk, and returns documents sorted by that best
// similarity descending, paginated to [offset, offset+size). If query
// embedding fails, it returns empty results with no error: the caller may
// still succeed via BM25 alone.
func (s *Searcher) Search(ctx context.Context, query string, page, size int, filter map[string]string) (results []Result, total int, err error) {
	start := time.Now()
	defer func() { s.observe(start, len(results), err) }()

	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}

	vectors, embErr := s.Embedder.EmbedBatch(ctx, []string{query})
	if embErr != nil || len(vectors) == 0 {
		logging.Log.WithError(embErr).Warn("semantic: query embedding failed, returning empty results")
		return nil, 0, nil
	}

	k := 5 * size
	hits, err := s.Vectors.SimilaritySearch(ctx, vectors[0], k, filter)
	if err != nil {
		return nil, 0, err
	}

	best := make(map[string]store.VectorResult)
	for _, h := range hits {
		docID := h.Metadata["doc_id"]
		if docID == "" {
			docID = stripChunkSuffix(h.ID)
		}
		if cur, ok := best[docID]; !ok || h.Score > cur.Score {
			best[docID] = h
		}
	}

	results = make([]Result, 0, len(best))
	for docID, h := range best {
		text := h.Metadata["text"]
		results = append(results, Result{
			DocID:   docID,
			Score:   h.Score,
			Text:    text,
			Snippet: truncateWithEllipsis(text, defaultSnippetLen),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	total = len(results)
	offset := (page - 1) * size
	if offset >= total {
		return nil, total, nil
	}
	end := offset + size
	if end > total {
		end = total
	}
	return results[offset:end], total, nil
}

func (s *Searcher) observe(start time.Time, resultCount int, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	labels := map[string]string{"outcome": outcome}
	s.Metrics.IncCounter("semantic_queries_total", labels)
	s.Metrics.ObserveHistogram("semantic_query_seconds", time.Since(start).Seconds(), labels)
	if err == nil {
		s.Metrics.ObserveHistogram("semantic_result_count", float64(resultCount), labels)
	}
}

func truncateWithEllipsis(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "…"
}

// stripChunkSuffix turns "docID:3" into "docID" when no doc_id metadata was
// set, matching internal/vectorindex's ChunkID convention.
func stripChunkSuffix(chunkID string) string {
	for i := len(chunkID) - 1; i >= 0; i-- {
		if chunkID[i] == ':' {
			if _, err := strconv.Atoi(chunkID[i+1:]); err == nil {
				return chunkID[:i]
			}
			break
		}
	}
	return chunkID
}
