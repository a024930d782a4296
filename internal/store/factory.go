package store

import (
	"context"
	"fmt"
)

// BackendOptions configures which concrete backends NewManager wires up.
type BackendOptions struct {
	// DatabaseURL is the Postgres DSN. Empty selects in-memory backends,
	// used for local development and tests.
	DatabaseURL string
	// VectorBackend selects the dense vector store: "postgres" (default)
	// or "qdrant".
	VectorBackend string
	QdrantURL     string
	QdrantCollection string
	Dimension     int
	VectorMetric  string
}

// Backends bundles every resolved persistence dependency the serving and
// background tiers need, so call sites take one value instead of juggling
// a growing positional-return tuple.
type Backends struct {
	Manager   Manager
	Postings  PostingsStore
	Terms     TermStore
	Documents DocumentStore
	Jobs      CrawlJobStore
}

// NewManager resolves concrete Search/Vector/Postings/Terms/Documents/Jobs
// backends from opts. Postings, Terms, Documents and Jobs always share the
// Postgres pool with Search when DatabaseURL is set, since they are all
// lexical-index or crawl-bookkeeping concerns over the same document set.
func NewManager(ctx context.Context, opts BackendOptions) (Backends, error) {
	if opts.DatabaseURL == "" {
		return Backends{
			Manager:   Manager{Search: NewMemorySearch(), Vector: NewMemoryVector()},
			Postings:  NewMemoryPostings(),
			Terms:     NewMemoryTerms(),
			Documents: NewMemoryDocuments(),
			Jobs:      NewMemoryJobs(),
		}, nil
	}

	pool, err := OpenPool(ctx, opts.DatabaseURL)
	if err != nil {
		return Backends{}, fmt.Errorf("open postgres pool: %w", err)
	}

	search := NewPostgresSearch(pool)
	postings := NewPostgresPostings(pool)
	terms := NewPostgresTerms(pool)
	documents := NewPostgresDocuments(pool)
	jobs := NewPostgresJobs(pool)

	var vector VectorStore
	switch opts.VectorBackend {
	case "qdrant":
		vector, err = NewQdrantVector(opts.QdrantURL, opts.QdrantCollection, opts.Dimension, opts.VectorMetric)
		if err != nil {
			return Backends{}, fmt.Errorf("open qdrant vector store: %w", err)
		}
	default:
		vector = NewPostgresVector(pool, opts.Dimension, opts.VectorMetric)
	}

	return Backends{
		Manager:   Manager{Search: search, Vector: vector},
		Postings:  postings,
		Terms:     terms,
		Documents: documents,
		Jobs:      jobs,
	}, nil
}
