package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/store"
)

type fakeLoader struct {
	docs map[string]Document
}

func (f fakeLoader) LoadDocument(_ context.Context, docID string) (Document, bool, error) {
	d, ok := f.docs[docID]
	return d, ok, nil
}

func TestIndexDocument_BuildsPostingsAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	postings := store.NewMemoryPostings()
	loader := fakeLoader{docs: map[string]Document{
		"doc1": {ID: "doc1", CleanText: "the cat sat on the mat"},
	}}
	b := NewBuilder(postings, loader)

	require.NoError(t, b.IndexDocument(ctx, "doc1"))

	posts, err := postings.PostingsForTerm(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "doc1", posts[0].DocID)
	require.Equal(t, 1, posts[0].TF)

	stats, ok, err := postings.DocStats(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, ok)
	// "the" (x2), "on" are stopwords; cat, sat, mat remain -> 3 positioned tokens
	require.Equal(t, 3, stats.TotalTerms)
	require.Equal(t, 3, stats.UniqueTerms)
}

func TestIndexDocument_EmptyOrMissingIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	postings := store.NewMemoryPostings()
	loader := fakeLoader{docs: map[string]Document{
		"empty": {ID: "empty", CleanText: ""},
	}}
	b := NewBuilder(postings, loader)

	require.NoError(t, b.IndexDocument(ctx, "empty"))
	require.NoError(t, b.IndexDocument(ctx, "missing"))

	coll, err := postings.CollectionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), coll.DocCount)
}

func TestIndexDocument_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	postings := store.NewMemoryPostings()
	loader := fakeLoader{docs: map[string]Document{
		"doc1": {ID: "doc1", CleanText: "search engines index the web and answer queries"},
	}}
	b := NewBuilder(postings, loader)

	require.NoError(t, b.IndexDocument(ctx, "doc1"))
	first, _, err := postings.DocStats(ctx, "doc1")
	require.NoError(t, err)

	require.NoError(t, b.IndexDocument(ctx, "doc1"))
	second, _, err := postings.DocStats(ctx, "doc1")
	require.NoError(t, err)

	require.Equal(t, first, second)

	coll, err := postings.CollectionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), coll.DocCount)
}

func TestRemoveDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	postings := store.NewMemoryPostings()
	loader := fakeLoader{docs: map[string]Document{
		"doc1": {ID: "doc1", CleanText: "fox jumps"},
	}}
	b := NewBuilder(postings, loader)
	require.NoError(t, b.IndexDocument(ctx, "doc1"))
	require.NoError(t, b.RemoveDocument(ctx, "doc1"))

	_, ok, err := postings.DocStats(ctx, "doc1")
	require.NoError(t, err)
	require.False(t, ok)
}
