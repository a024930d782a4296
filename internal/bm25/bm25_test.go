package bm25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/store"
)

func seedPostings(t *testing.T, ps store.PostingsStore, docID string, terms map[string]int, totalTerms int) {
	t.Helper()
	ctx := context.Background()
	postings := make([]store.Posting, 0, len(terms))
	for term, tf := range terms {
		positions := make([]int, tf)
		for i := range positions {
			positions[i] = i
		}
		postings = append(postings, store.Posting{Term: term, DocID: docID, TF: tf, Positions: positions})
	}
	require.NoError(t, ps.WritePostings(ctx, docID, postings, store.DocStats{
		DocID:       docID,
		TotalTerms:  totalTerms,
		UniqueTerms: len(terms),
	}))
}

func TestScore_EmptyCollectionReturnsEmpty(t *testing.T) {
	t.Parallel()
	ps := store.NewMemoryPostings()
	s := NewScorer(ps, 0, 0)
	out, err := s.Score(context.Background(), []string{"search"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestScore_RanksMoreRelevantDocumentHigher(t *testing.T) {
	t.Parallel()
	ps := store.NewMemoryPostings()
	seedPostings(t, ps, "doc1", map[string]int{"search": 5, "engine": 1}, 20)
	seedPostings(t, ps, "doc2", map[string]int{"search": 1}, 50)
	seedPostings(t, ps, "doc3", map[string]int{"unrelated": 3}, 10)

	s := NewScorer(ps, 0, 0)
	out, err := s.Score(context.Background(), []string{"search", "engine"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "doc1", out[0].DocID)
	require.Equal(t, "doc2", out[1].DocID)
	require.Greater(t, out[0].Score, out[1].Score)
}

func TestScore_DeduplicatesRepeatedTerms(t *testing.T) {
	t.Parallel()
	ps := store.NewMemoryPostings()
	seedPostings(t, ps, "doc1", map[string]int{"search": 2}, 10)

	s := NewScorer(ps, 0, 0)
	once, err := s.Score(context.Background(), []string{"search"})
	require.NoError(t, err)
	twice, err := s.Score(context.Background(), []string{"search", "search"})
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestPaginate(t *testing.T) {
	t.Parallel()
	scored := []Scored{{DocID: "a"}, {DocID: "b"}, {DocID: "c"}, {DocID: "d"}, {DocID: "e"}}
	page, total := Paginate(scored, 2, 2)
	require.Equal(t, 5, total)
	require.Equal(t, []Scored{{DocID: "c"}, {DocID: "d"}}, page)
}

func TestPaginate_PastEndIsEmpty(t *testing.T) {
	t.Parallel()
	scored := []Scored{{DocID: "a"}}
	page, total := Paginate(scored, 5, 10)
	require.Equal(t, 1, total)
	require.Empty(t, page)
}

func TestSnippet_WindowsAroundEarliestMatch(t *testing.T) {
	t.Parallel()
	text := "this is a long piece of text that talks about search engines and ranking algorithms in detail"
	s := Snippet(text, []string{"search"}, 20)
	require.Contains(t, s, "search")
}

func TestSnippet_NoMatchReturnsPrefix(t *testing.T) {
	t.Parallel()
	text := "no relevant terms appear in this document at all"
	s := Snippet(text, []string{"zzz"}, 10)
	require.Equal(t, "no relevan…", s)
}

func TestSnippet_ShortTextNoEllipsis(t *testing.T) {
	t.Parallel()
	s := Snippet("short text", []string{"short"}, 250)
	require.Equal(t, "short text", s)
}

func TestHighlight_WrapsCaseInsensitivePreservingOriginalCasing(t *testing.T) {
	t.Parallel()
	out := Highlight("The Search Engine indexes Search results", []string{"search"})
	require.Equal(t, "The <mark>Search</mark> Engine indexes <mark>Search</mark> results", out)
}

func TestHighlight_NoTokensReturnsUnchanged(t *testing.T) {
	t.Parallel()
	out := Highlight("hello world", nil)
	require.Equal(t, "hello world", out)
}

func TestHighlight_OverlappingMatchesMerge(t *testing.T) {
	t.Parallel()
	out := Highlight("searchsearch", []string{"search", "archse"})
	require.Equal(t, "<mark>searchsearch</mark>", out)
}
