package store

import "context"

// Posting is a single term occurrence record for one document: its raw term
// frequency and the token positions it occurred at, used by BM25 scoring and
// phrase/proximity features.
type Posting struct {
	Term      string
	DocID     string
	TF        int
	Positions []int
}

// DocStats holds the per-document length statistics BM25's length
// normalization term depends on.
type DocStats struct {
	DocID       string
	TotalTerms  int
	UniqueTerms int
}

// CollectionStats is the singleton aggregate BM25's IDF and average document
// length terms are computed from. It is maintained incrementally: each
// WritePostings or RemoveDocument call adds its own delta to the aggregate.
type CollectionStats struct {
	DocCount    int64
	TotalLength int64
}

// AvgDocLength returns the mean document length, or 0 when the collection is empty.
func (c CollectionStats) AvgDocLength() float64 {
	if c.DocCount == 0 {
		return 0
	}
	return float64(c.TotalLength) / float64(c.DocCount)
}

// PostingsStore is the term-level inverted index backend: postings keyed by
// (term, document), per-document length stats, and collection-wide
// aggregates. Implementations must tolerate concurrent WritePostings calls
// replacing a document's postings (last-writer-wins on conflicting updates).
type PostingsStore interface {
	// WritePostings replaces all postings for docID with the given set and
	// updates doc/collection stats accordingly. Passing an empty postings
	// slice removes the document's term-level presence.
	WritePostings(ctx context.Context, docID string, postings []Posting, stats DocStats) error
	// PostingsForTerm returns every posting recorded for term across the corpus.
	PostingsForTerm(ctx context.Context, term string) ([]Posting, error)
	// DocStats returns the length statistics recorded for docID.
	DocStats(ctx context.Context, docID string) (DocStats, bool, error)
	// CollectionStats returns the current corpus-wide aggregate.
	CollectionStats(ctx context.Context) (CollectionStats, error)
	// RemoveDocument deletes all postings and stats for docID.
	RemoveDocument(ctx context.Context, docID string) error
}
