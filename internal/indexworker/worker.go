// Package indexworker implements the background index worker (C13): three
// tasks (indexDocument, indexBatch, fullReindex) that drive the term index
// (C2) and vector index (C3) builders, each isolating per-document failures
// and retrying transient errors with exponential backoff, grounded on the
// teacher's Kafka worker-pool retry/backoff shape in
// internal/orchestrator/kafka.go.
package indexworker

import (
	"context"
	"time"

	"hyperfind/internal/apperr"
	"hyperfind/internal/index"
	"hyperfind/internal/logging"
	"hyperfind/internal/obs"
	"hyperfind/internal/store"
	"hyperfind/internal/vectorindex"
)

// maxAttempts bounds retries for a single document's indexing task (spec:
// index task retries up to 3 times).
const maxAttempts = 3

// baseBackoff is the initial retry delay; each attempt doubles it (spec:
// 30s countdown for index tasks).
const baseBackoff = 30 * time.Second

// Worker drives indexDocument/indexBatch/fullReindex against the term and
// vector indexers, using Documents as the canonical clean-text source.
type Worker struct {
	Terms     *index.Builder
	Vectors   *vectorindex.Indexer
	Documents store.DocumentStore
	// FullText, if set, receives a copy of each indexed document's clean
	// text so the Postgres/in-memory FTS backend stays queryable
	// independently of the BM25 term index. Nil disables it.
	FullText store.FullTextSearch
	// Metrics records per-task latency and outcome counts. Nil disables
	// instrumentation.
	Metrics obs.Metrics
}

// NewWorker builds a Worker over the given term builder, vector indexer,
// and document store.
func NewWorker(terms *index.Builder, vectors *vectorindex.Indexer, documents store.DocumentStore) *Worker {
	return &Worker{Terms: terms, Vectors: vectors, Documents: documents}
}

func (w *Worker) observe(task string, start time.Time, err error) {
	if w.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	labels := map[string]string{"task": task, "outcome": outcome}
	w.Metrics.IncCounter("indexworker_tasks_total", labels)
	w.Metrics.ObserveHistogram("indexworker_task_seconds", time.Since(start).Seconds(), labels)
}

// documentLoader adapts store.DocumentStore to index.DocumentLoader.
type documentLoader struct {
	documents store.DocumentStore
}

// NewDocumentLoader adapts a DocumentStore to index.DocumentLoader, so
// cmd/hyperfind can build index.NewBuilder directly against the crawl
// orchestrator's document store.
func NewDocumentLoader(documents store.DocumentStore) index.DocumentLoader {
	return documentLoader{documents: documents}
}

func (l documentLoader) LoadDocument(ctx context.Context, docID string) (index.Document, bool, error) {
	doc, ok, err := l.documents.GetByID(ctx, docID)
	if err != nil || !ok {
		return index.Document{}, ok, err
	}
	return index.Document{ID: doc.ID, CleanText: doc.CleanText}, true, nil
}

// IndexDocument runs C2.IndexDocument then C3.IndexDocument for docID,
// retrying those steps with exponential backoff on a retryable error, then
// runs C2.UpdateCollectionStats once. A non-retryable (permanent) error is
// returned at once, without further attempts.
func (w *Worker) IndexDocument(ctx context.Context, docID string) error {
	start := time.Now()
	err := withRetry(ctx, "indexworker.IndexDocument", func() error {
		return w.indexOne(ctx, docID)
	})
	if err == nil {
		_, err = w.Terms.UpdateCollectionStats(ctx)
	}
	w.observe("index.document", start, err)
	return err
}

// indexOne runs the term and vector indexing steps for a single document
// and marks it indexed on success.
func (w *Worker) indexOne(ctx context.Context, docID string) error {
	if err := w.Terms.IndexDocument(ctx, docID); err != nil {
		return err
	}

	doc, ok, err := w.Documents.GetByID(ctx, docID)
	if err != nil {
		return apperr.New(apperr.PersistenceFailure, "indexworker.indexOne", err)
	}
	if !ok {
		return nil
	}

	if err := w.Vectors.IndexDocument(ctx, doc.ID, doc.CleanText, doc.Metadata); err != nil {
		return err
	}

	if w.FullText != nil {
		if err := w.FullText.Index(ctx, doc.ID, doc.CleanText, doc.Metadata); err != nil {
			return apperr.New(apperr.PersistenceFailure, "indexworker.indexOne", err)
		}
	}

	if err := w.Documents.MarkIndexed(ctx, docID); err != nil {
		return apperr.New(apperr.PersistenceFailure, "indexworker.indexOne", err)
	}
	return nil
}

// IndexBatch runs the term+vector indexing steps for each id, isolating
// per-document failures so one bad document doesn't abort the rest, then
// runs a single UpdateCollectionStats at the end.
func (w *Worker) IndexBatch(ctx context.Context, ids []string) error {
	start := time.Now()
	for _, id := range ids {
		if err := withRetry(ctx, "indexworker.IndexBatch", func() error {
			return w.indexOne(ctx, id)
		}); err != nil {
			logging.Log.WithError(err).WithField("docId", id).Error("indexworker: document failed, continuing batch")
		}
	}
	_, err := w.Terms.UpdateCollectionStats(ctx)
	w.observe("index.batch", start, err)
	return err
}

// FullReindex enumerates every document and reindexes it, isolating
// per-document failures, then runs a single UpdateCollectionStats at the
// end. It is meant to be invoked periodically (e.g. nightly) by a caller's
// own scheduler.
func (w *Worker) FullReindex(ctx context.Context) error {
	start := time.Now()
	docs, err := w.Documents.ListAll(ctx)
	if err != nil {
		err = apperr.New(apperr.PersistenceFailure, "indexworker.FullReindex", err)
		w.observe("index.full", start, err)
		return err
	}

	for _, doc := range docs {
		id := doc.ID
		if err := withRetry(ctx, "indexworker.FullReindex", func() error {
			return w.indexOne(ctx, id)
		}); err != nil {
			logging.Log.WithError(err).WithField("docId", id).Error("indexworker: document failed during full reindex, continuing")
		}
	}

	_, err = w.Terms.UpdateCollectionStats(ctx)
	w.observe("index.full", start, err)
	return err
}

// withRetry runs fn up to maxAttempts times, doubling baseBackoff between
// attempts, as long as the returned error is retryable. A non-retryable
// error returns immediately without consuming further attempts.
func withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := baseBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !apperr.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		logging.Log.WithError(err).WithField("op", op).WithField("attempt", attempt).Warn("indexworker: retryable error, backing off")
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}
