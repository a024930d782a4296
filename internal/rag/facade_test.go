package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/bm25"
	"hyperfind/internal/semantic"
)

type fakeBM25Scorer struct{ scored []bm25.Scored }

func (f fakeBM25Scorer) Score(context.Context, []string) ([]bm25.Scored, error) { return f.scored, nil }

type fakeSemanticSearcher struct{ results []semantic.Result }

func (f fakeSemanticSearcher) Search(context.Context, string, int, int, map[string]string) ([]semantic.Result, int, error) {
	return f.results, len(f.results), nil
}

type fakeDocs struct{ docs map[string]DocumentMeta }

func (f fakeDocs) GetDocument(_ context.Context, docID string) (DocumentMeta, bool, error) {
	d, ok := f.docs[docID]
	return d, ok, nil
}

func TestRetrieveContext_BM25Method(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 2.5}}}
	docs := fakeDocs{docs: map[string]DocumentMeta{"doc1": {Title: "Doc One", CleanText: "full clean text of doc one"}}}
	f := NewFacade(b, fakeSemanticSearcher{}, docs)

	out, err := f.RetrieveContext(context.Background(), "anything", 5, MethodBM25)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "doc1", out[0].DocumentID)
	require.Equal(t, "Doc One", out[0].Title)
	require.Equal(t, "full clean text of doc one", out[0].ChunkText)
}

func TestRetrieveContext_SemanticMethod(t *testing.T) {
	t.Parallel()
	s := fakeSemanticSearcher{results: []semantic.Result{{DocID: "doc2", Score: 0.8, Text: "chunk text"}}}
	f := NewFacade(fakeBM25Scorer{}, s, fakeDocs{})

	out, err := f.RetrieveContext(context.Background(), "anything", 5, MethodSemantic)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "chunk text", out[0].ChunkText)
}

func TestRetrieveContext_HybridSkipsDuplicateDocuments(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 1}, {DocID: "doc3", Score: 0.5}}}
	s := fakeSemanticSearcher{results: []semantic.Result{{DocID: "doc1", Score: 0.9, Text: "semantic chunk"}}}
	f := NewFacade(b, s, fakeDocs{})

	out, err := f.RetrieveContext(context.Background(), "anything", 10, MethodHybrid)
	require.NoError(t, err)

	ids := make(map[string]int)
	for _, r := range out {
		ids[r.DocumentID]++
	}
	require.Equal(t, 1, ids["doc1"])
	require.Equal(t, 1, ids["doc3"])
}

func TestRetrieveContext_HybridSortsByRelevanceDescending(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc3", Score: 9}}}
	s := fakeSemanticSearcher{results: []semantic.Result{{DocID: "doc1", Score: 0.2, Text: "x"}}}
	f := NewFacade(b, s, fakeDocs{})

	out, err := f.RetrieveContext(context.Background(), "anything", 10, MethodHybrid)
	require.NoError(t, err)
	require.Equal(t, "doc3", out[0].DocumentID)
}

func TestRetrieveContext_CapsToTopK(t *testing.T) {
	t.Parallel()
	var scored []bm25.Scored
	for i := 0; i < 10; i++ {
		scored = append(scored, bm25.Scored{DocID: string(rune('a' + i)), Score: float64(10 - i)})
	}
	f := NewFacade(fakeBM25Scorer{scored: scored}, fakeSemanticSearcher{}, fakeDocs{})

	out, err := f.RetrieveContext(context.Background(), "anything", 3, MethodBM25)
	require.NoError(t, err)
	require.Len(t, out, 3)
}
