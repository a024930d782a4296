package indexworker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/embedder"
	"hyperfind/internal/index"
	"hyperfind/internal/obs"
	"hyperfind/internal/store"
	"hyperfind/internal/vectorindex"
)

func newTestWorker() (*Worker, store.DocumentStore, store.PostingsStore, store.VectorStore) {
	documents := store.NewMemoryDocuments()
	postings := store.NewMemoryPostings()
	vectors := store.NewMemoryVector()

	terms := index.NewBuilder(postings, NewDocumentLoader(documents))
	vecIndexer := vectorindex.NewIndexer(embedder.NewDeterministic(8, 1), vectors, 50, 10)

	return NewWorker(terms, vecIndexer, documents), documents, postings, vectors
}

func TestIndexDocument_BuildsTermAndVectorIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, documents, postings, _ := newTestWorker()

	require.NoError(t, documents.Insert(ctx, store.Document{
		ID: "d1", URL: "https://a.example", CleanText: "the quick brown fox jumps over the lazy dog",
	}))

	require.NoError(t, w.IndexDocument(ctx, "d1"))

	stats, err := postings.CollectionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.DocCount)

	doc, _, err := documents.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, doc.IndexedAt)
}

func TestIndexBatch_IsolatesPerDocumentFailureAndContinues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, documents, postings, _ := newTestWorker()

	require.NoError(t, documents.Insert(ctx, store.Document{ID: "d1", URL: "https://a.example", CleanText: "hello world"}))
	require.NoError(t, documents.Insert(ctx, store.Document{ID: "d2", URL: "https://b.example", CleanText: "goodbye world"}))

	err := w.IndexBatch(ctx, []string{"d1", "missing-doc", "d2"})
	require.NoError(t, err)

	stats, err := postings.CollectionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.DocCount)
}

func TestFullReindex_CoversEveryDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, documents, postings, _ := newTestWorker()

	require.NoError(t, documents.Insert(ctx, store.Document{ID: "d1", URL: "https://a.example", CleanText: "alpha beta gamma"}))
	require.NoError(t, documents.Insert(ctx, store.Document{ID: "d2", URL: "https://b.example", CleanText: "delta epsilon zeta"}))

	require.NoError(t, w.FullReindex(ctx))

	stats, err := postings.CollectionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.DocCount)
}

func TestIndexDocument_RecordsMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, documents, _, _ := newTestWorker()
	m := obs.NewMockMetrics()
	w.Metrics = m

	require.NoError(t, documents.Insert(ctx, store.Document{ID: "d1", URL: "https://a.example", CleanText: "alpha beta gamma"}))
	require.NoError(t, w.IndexDocument(ctx, "d1"))

	require.Equal(t, 1, m.Counters["indexworker_tasks_total"])
	require.Len(t, m.Hists["indexworker_task_seconds"], 1)
}
