package autocomplete

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/store"
)

func TestManager_SearchPrefix_BuildsLazilyFromTermStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := store.NewMemoryTerms()
	require.NoError(t, ts.IncrementFrequency(ctx, "search engines"))
	require.NoError(t, ts.IncrementFrequency(ctx, "search bar"))

	m := NewManager(ts)
	hits, err := m.SearchPrefix(ctx, "search", 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"search engines", "search bar"}, hits)
}

func TestManager_RecordQuery_DropsShortTerms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := store.NewMemoryTerms()
	m := NewManager(ts)

	require.NoError(t, m.RecordQuery(ctx, "a"))
	top, err := ts.TopTerms(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestManager_RecordQuery_InvalidatesTrieForNextRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := store.NewMemoryTerms()
	m := NewManager(ts)

	hits, err := m.SearchPrefix(ctx, "go", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	require.NoError(t, m.RecordQuery(ctx, "golang"))

	hits, err = m.SearchPrefix(ctx, "go", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"golang"}, hits)
}

func TestManager_SearchPrefix_FallsBackToPersistentLookupWhenTrieEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := store.NewMemoryTerms()
	m := NewManager(ts)

	hits, err := m.SearchPrefix(ctx, "anything", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}
