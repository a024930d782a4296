// Package index implements the term-level inverted index builder (C2):
// turning a document's clean text into postings, document stats, and
// collection stats via internal/textproc and internal/store.
package index

import (
	"context"
	"fmt"

	"hyperfind/internal/apperr"
	"hyperfind/internal/logging"
	"hyperfind/internal/store"
	"hyperfind/internal/textproc"
)

// Document is the minimal view the indexer needs of a document record; the
// crawl/document store owns the full schema.
type Document struct {
	ID        string
	CleanText string
}

// DocumentLoader loads a document's clean text by id. Implementations may
// be backed by store.FullTextSearch.GetByID or a dedicated document store.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, docID string) (Document, bool, error)
}

// Builder drives indexDocument/updateCollectionStats against a PostingsStore.
type Builder struct {
	Postings store.PostingsStore
	Docs     DocumentLoader
}

// NewBuilder constructs a Builder.
func NewBuilder(postings store.PostingsStore, docs DocumentLoader) *Builder {
	return &Builder{Postings: postings, Docs: docs}
}

// IndexDocument loads docID's clean text, runs it through C1's
// processWithPositions, aggregates postings, and atomically replaces the
// document's postings and stats. An empty or missing document is a no-op
// (logged, no error) per spec. Running this twice consecutively must leave
// the index in the same observable state as running it once (idempotence).
func (b *Builder) IndexDocument(ctx context.Context, docID string) error {
	doc, ok, err := b.Docs.LoadDocument(ctx, docID)
	if err != nil {
		return apperr.New(apperr.PersistenceFailure, "index.IndexDocument", err)
	}
	if !ok || doc.CleanText == "" {
		logging.Log.WithField("docId", docID).Warn("index: document missing or empty, skipping")
		return nil
	}

	positioned := textproc.ProcessWithPositions(doc.CleanText)
	aggregate := make(map[string]*store.Posting, len(positioned))
	for _, pt := range positioned {
		p, ok := aggregate[pt.Term]
		if !ok {
			p = &store.Posting{Term: pt.Term, DocID: docID}
			aggregate[pt.Term] = p
		}
		p.TF++
		p.Positions = append(p.Positions, pt.Position)
	}

	postings := make([]store.Posting, 0, len(aggregate))
	for _, p := range aggregate {
		postings = append(postings, *p)
	}

	stats := store.DocStats{
		DocID:       docID,
		TotalTerms:  len(positioned),
		UniqueTerms: len(aggregate),
	}

	if err := b.Postings.WritePostings(ctx, docID, postings, stats); err != nil {
		return apperr.New(apperr.PersistenceFailure, "index.IndexDocument", fmt.Errorf("write postings for %s: %w", docID, err))
	}
	return nil
}

// RemoveDocument deletes a document's postings and stats.
func (b *Builder) RemoveDocument(ctx context.Context, docID string) error {
	if err := b.Postings.RemoveDocument(ctx, docID); err != nil {
		return apperr.New(apperr.PersistenceFailure, "index.RemoveDocument", err)
	}
	return nil
}

// UpdateCollectionStats is a no-op for PostingsStore implementations that
// maintain the collection_stats aggregate incrementally on every write (the
// Postgres and memory backends both do). It exists as an explicit seam for
// a future batch compactor, per the "global stats as a summarization job"
// design note; callers tolerate staleness up to one batch either way.
func (b *Builder) UpdateCollectionStats(ctx context.Context) (store.CollectionStats, error) {
	cs, err := b.Postings.CollectionStats(ctx)
	if err != nil {
		return store.CollectionStats{}, apperr.New(apperr.PersistenceFailure, "index.UpdateCollectionStats", err)
	}
	return cs, nil
}
