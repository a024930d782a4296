package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/apperr"
)

func TestMemoryDocuments_InsertAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := NewMemoryDocuments()

	require.NoError(t, ds.Insert(ctx, Document{ID: "1", URL: "https://a.example", CleanText: "hello"}))

	d, ok, err := ds.GetByURL(ctx, "https://a.example")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", d.ID)

	d, ok, err = ds.GetByID(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", d.CleanText)
}

func TestMemoryDocuments_InsertDuplicateURLIsConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := NewMemoryDocuments()
	require.NoError(t, ds.Insert(ctx, Document{ID: "1", URL: "https://a.example"}))

	err := ds.Insert(ctx, Document{ID: "2", URL: "https://a.example"})
	require.Error(t, err)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestMemoryDocuments_MarkIndexed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := NewMemoryDocuments()
	require.NoError(t, ds.Insert(ctx, Document{ID: "1", URL: "https://a.example"}))

	require.NoError(t, ds.MarkIndexed(ctx, "1"))
	d, _, err := ds.GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, d.IndexedAt)
}

func TestMemoryDocuments_MarkIndexedMissingIsNotFound(t *testing.T) {
	t.Parallel()
	err := NewMemoryDocuments().MarkIndexed(context.Background(), "missing")
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestMemoryDocuments_ListAllAndCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := NewMemoryDocuments()
	require.NoError(t, ds.Insert(ctx, Document{ID: "1", URL: "https://a.example"}))
	require.NoError(t, ds.Insert(ctx, Document{ID: "2", URL: "https://b.example"}))

	n, err := ds.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	all, err := ds.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
