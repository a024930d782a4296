// Package store defines the persistence contracts used by the indexing and
// retrieval pipeline (full-text postings, dense vectors, crawl/document
// bookkeeping) plus the concrete Postgres, Qdrant, and in-memory backends
// that satisfy them.
package store

import "context"

// SearchResult represents a single hit from the full-text search backend.
type SearchResult struct {
	ID       string
	Score    float64
	Snippet  string
	Text     string
	Metadata map[string]string
}

// FullTextSearch defines the minimum interface for a pluggable FTS backend.
// It backs document storage and lexical lookups used while assembling
// snippets and fallbacks; term-level BM25 scoring goes through PostingsStore.
type FullTextSearch interface {
	Index(ctx context.Context, id string, text string, metadata map[string]string) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	GetByID(ctx context.Context, id string) (SearchResult, bool, error)
	SearchChunks(ctx context.Context, query string, lang string, limit int, filter map[string]string) ([]SearchResult, error)
}

// VectorResult represents a single nearest neighbor lookup result.
type VectorResult struct {
	ID       string
	Score    float64 // Higher is closer by default
	Metadata map[string]string
}

// VectorStore defines the minimum interface for a pluggable dense vector
// store backing chunk-level semantic search.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Delete(ctx context.Context, id string) error
	SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]VectorResult, error)
	// DeleteByMetadata removes every vector whose metadata matches filter
	// (exact equality on every key). Used by the vector indexer to replace
	// a document's chunk set atomically: delete-by-doc_id, then insert.
	DeleteByMetadata(ctx context.Context, filter map[string]string) error
}

// Manager holds concrete database backends resolved from configuration.
type Manager struct {
	Search FullTextSearch
	Vector VectorStore
}

// Close attempts to close any underlying pools. It's a no-op for memory backends.
func (m Manager) Close() {
	if c, ok := any(m.Search).(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := any(m.Vector).(interface{ Close() }); ok {
		c.Close()
	}
}
