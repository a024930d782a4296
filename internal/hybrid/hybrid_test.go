package hybrid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/bm25"
	"hyperfind/internal/semantic"
)

type fakeBM25 struct {
	scored []bm25.Scored
}

func (f fakeBM25) Score(context.Context, []string) ([]bm25.Scored, error) { return f.scored, nil }

type fakeSemantic struct {
	results []semantic.Result
}

func (f fakeSemantic) Search(_ context.Context, _ string, _ int, _ int, _ map[string]string) ([]semantic.Result, int, error) {
	return f.results, len(f.results), nil
}

func TestRank_FusesBothSourcesByRRF(t *testing.T) {
	t.Parallel()
	b := fakeBM25{scored: []bm25.Scored{{DocID: "doc1", Score: 5}, {DocID: "doc2", Score: 2}}}
	s := fakeSemantic{results: []semantic.Result{{DocID: "doc2", Score: 0.9}, {DocID: "doc3", Score: 0.5}}}

	r := NewRanker(b, s, 60)
	results, total, err := r.Rank(context.Background(), []string{"x"}, "x", 1, 10, 0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, total)

	// doc2 appears in both lists (rank 2 bm25, rank 1 semantic) -> highest RRF.
	require.Equal(t, "doc2", results[0].DocID)
	require.Equal(t, 2, results[0].BM25Rank)
	require.Equal(t, 1, results[0].SemanticRank)
}

func TestRank_DocumentOnlyInOneListHasNullableOtherRank(t *testing.T) {
	t.Parallel()
	b := fakeBM25{scored: []bm25.Scored{{DocID: "doc1", Score: 5}}}
	s := fakeSemantic{}

	r := NewRanker(b, s, 60)
	results, _, err := r.Rank(context.Background(), []string{"x"}, "x", 1, 10, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].BM25Rank)
	require.Equal(t, 0, results[0].SemanticRank)
}

func TestRank_SnippetPrefersBM25(t *testing.T) {
	t.Parallel()
	b := fakeBM25{scored: []bm25.Scored{{DocID: "doc1", Score: 5}}}
	s := fakeSemantic{results: []semantic.Result{{DocID: "doc1", Score: 0.9, Snippet: "semantic snippet"}}}

	r := NewRanker(b, s, 60)
	results, _, err := r.Rank(context.Background(), []string{"x"}, "x", 1, 10, 0, nil, map[string]string{"doc1": "bm25 snippet"})
	require.NoError(t, err)
	require.Equal(t, "bm25 snippet", results[0].Snippet)
}

func TestRank_SnippetFallsBackToSemantic(t *testing.T) {
	t.Parallel()
	b := fakeBM25{scored: []bm25.Scored{{DocID: "doc1", Score: 5}}}
	s := fakeSemantic{results: []semantic.Result{{DocID: "doc1", Score: 0.9, Snippet: "semantic snippet"}}}

	r := NewRanker(b, s, 60)
	results, _, err := r.Rank(context.Background(), []string{"x"}, "x", 1, 10, 0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "semantic snippet", results[0].Snippet)
}

func TestRank_Pagination(t *testing.T) {
	t.Parallel()
	b := fakeBM25{scored: []bm25.Scored{{DocID: "doc1", Score: 5}, {DocID: "doc2", Score: 4}, {DocID: "doc3", Score: 3}}}
	s := fakeSemantic{}

	r := NewRanker(b, s, 60)
	page1, total, err := r.Rank(context.Background(), []string{"x"}, "x", 1, 2, 0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page1, 2)

	page2, _, err := r.Rank(context.Background(), []string{"x"}, "x", 2, 2, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, page2, 1)
}
