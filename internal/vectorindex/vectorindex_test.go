package vectorindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/embedder"
	"hyperfind/internal/store"
)

func TestIndexer_IndexDocument_ReplacesChunksAtomically(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	ix := NewIndexer(embedder.NewDeterministic(16, 1), vectors, 5, 1)

	require.NoError(t, ix.IndexDocument(ctx, "doc1", words(12), map[string]string{"lang": "en"}))

	results, err := vectors.SimilaritySearch(ctx, make([]float32, 16), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.Equal(t, "doc1", r.Metadata["doc_id"])
		require.Equal(t, "en", r.Metadata["lang"])
	}

	// Re-indexing the same document must not accumulate stale chunks.
	before := len(results)
	require.NoError(t, ix.IndexDocument(ctx, "doc1", words(12), map[string]string{"lang": "en"}))
	after, err := vectors.SimilaritySearch(ctx, make([]float32, 16), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.Len(t, after, before)
}

func TestIndexer_IndexDocument_EmptyIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	ix := NewIndexer(embedder.NewDeterministic(8, 1), vectors, 5, 1)

	require.NoError(t, ix.IndexDocument(ctx, "doc1", "   ", nil))
	results, err := vectors.SimilaritySearch(ctx, make([]float32, 8), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.Empty(t, results)
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend unavailable")
}
func (failingEmbedder) Name() string                      { return "failing" }
func (failingEmbedder) Dimension() int                     { return 8 }
func (failingEmbedder) Ping(context.Context) error         { return nil }

func TestIndexer_IndexDocument_EmbeddingFailureLeavesPriorVectorsUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	ix := NewIndexer(embedder.NewDeterministic(8, 1), vectors, 5, 1)
	require.NoError(t, ix.IndexDocument(ctx, "doc1", words(6), nil))

	before, err := vectors.SimilaritySearch(ctx, make([]float32, 8), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.NotEmpty(t, before)

	ix.Embedder = failingEmbedder{}
	require.NoError(t, ix.IndexDocument(ctx, "doc1", words(6), nil))

	after, err := vectors.SimilaritySearch(ctx, make([]float32, 8), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestIndexer_RemoveDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	vectors := store.NewMemoryVector()
	ix := NewIndexer(embedder.NewDeterministic(8, 1), vectors, 5, 1)
	require.NoError(t, ix.IndexDocument(ctx, "doc1", words(6), nil))

	require.NoError(t, ix.RemoveDocument(ctx, "doc1"))

	results, err := vectors.SimilaritySearch(ctx, make([]float32, 8), 10, map[string]string{"doc_id": "doc1"})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestChunkID(t *testing.T) {
	t.Parallel()
	require.Equal(t, "doc1:3", ChunkID("doc1", 3))
}
