package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/embedder"
	"hyperfind/internal/store"
)

func TestSearch_DedupesToBestChunkPerDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	emb := embedder.NewDeterministic(16, 3)

	vecs, err := emb.EmbedBatch(ctx, []string{"search engines rank documents", "search engines rank documents well today"})
	require.NoError(t, err)
	require.NoError(t, vectors.Upsert(ctx, "doc1:0", vecs[0], map[string]string{"doc_id": "doc1", "text": "chunk one text"}))
	require.NoError(t, vectors.Upsert(ctx, "doc1:1", vecs[1], map[string]string{"doc_id": "doc1", "text": "chunk two text"}))

	s := NewSearcher(emb, vectors)
	results, total, err := s.Search(ctx, "search engines rank documents", 1, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, results, 1)
	require.Equal(t, "doc1", results[0].DocID)
}

func TestSearch_SortsByScoreDescending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	emb := embedder.NewDeterministic(16, 3)

	vecs, err := emb.EmbedBatch(ctx, []string{"cats and dogs", "quantum physics research"})
	require.NoError(t, err)
	require.NoError(t, vectors.Upsert(ctx, "doc1:0", vecs[0], map[string]string{"doc_id": "doc1"}))
	require.NoError(t, vectors.Upsert(ctx, "doc2:0", vecs[1], map[string]string{"doc_id": "doc2"}))

	s := NewSearcher(emb, vectors)
	results, total, err := s.Search(ctx, "cats and dogs", 1, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "doc1", results[0].DocID)
}

type failingEmbedder struct{ embedder.Embedder }

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, assertErr{}
}

type assertErr struct{}

func (assertErr) Error() string { return "embedding backend down" }

func TestSearch_EmbeddingFailureReturnsEmptyNoError(t *testing.T) {
	t.Parallel()
	vectors := store.NewMemoryVector()
	s := NewSearcher(failingEmbedder{}, vectors)
	results, total, err := s.Search(context.Background(), "anything", 1, 10, nil)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, 0, total)
}

func TestSearch_Pagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	emb := embedder.NewDeterministic(16, 9)

	texts := []string{"alpha document", "beta document", "gamma document"}
	vecs, err := emb.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	for i, v := range vecs {
		require.NoError(t, vectors.Upsert(ctx, texts[i]+":0", v, map[string]string{"doc_id": texts[i]}))
	}

	s := NewSearcher(emb, vectors)
	page1, total, err := s.Search(ctx, "alpha document", 1, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page1, 2)

	page2, _, err := s.Search(ctx, "alpha document", 2, 2, nil)
	require.NoError(t, err)
	require.Len(t, page2, 1)
}
