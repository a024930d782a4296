package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Total   int      `json:"total"`
	Results []string `json:"results"`
}

func TestKey_String(t *testing.T) {
	k := Key{Type: "hybrid", CacheKey: "abc123", Page: 2, PageSize: 20}
	require.Equal(t, "search:hybrid:abc123:p2:s20", k.String())
}

func TestMemoryCache_MissThenHitAfterSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory(0)
	key := Key{Type: "lexical", CacheKey: "k1", Page: 1, PageSize: 10}

	var dest payload
	ok, err := c.Get(ctx, key, &dest)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, key, 2, payload{Total: 2, Results: []string{"a", "b"}}))

	ok, err = c.Get(ctx, key, &dest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, dest.Total)
	require.Equal(t, []string{"a", "b"}, dest.Results)
}

func TestMemoryCache_EmptyResultNeverCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory(0)
	key := Key{Type: "semantic", CacheKey: "k2", Page: 1, PageSize: 10}

	require.NoError(t, c.Set(ctx, key, 0, payload{Total: 0}))

	var dest payload
	ok, err := c.Get(ctx, key, &dest)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCache_EntryExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory(10 * time.Millisecond)
	key := Key{Type: "hybrid", CacheKey: "k3", Page: 1, PageSize: 10}

	require.NoError(t, c.Set(ctx, key, 1, payload{Total: 1}))
	time.Sleep(25 * time.Millisecond)

	var dest payload
	ok, err := c.Get(ctx, key, &dest)
	require.NoError(t, err)
	require.False(t, ok)
}
