package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryTerms_IncrementAndTop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewMemoryTerms()

	require.NoError(t, ts.IncrementFrequency(ctx, "search"))
	require.NoError(t, ts.IncrementFrequency(ctx, "search"))
	require.NoError(t, ts.IncrementFrequency(ctx, "semantic"))

	top, err := ts.TopTerms(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []TermFreq{{Term: "search", Frequency: 2}, {Term: "semantic", Frequency: 1}}, top)
}

func TestMemoryTerms_PrefixSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewMemoryTerms()
	require.NoError(t, ts.IncrementFrequency(ctx, "search"))
	require.NoError(t, ts.IncrementFrequency(ctx, "semantic"))
	require.NoError(t, ts.IncrementFrequency(ctx, "rank"))

	hits, err := ts.PrefixSearch(ctx, "se", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.Contains(t, []string{"search", "semantic"}, h.Term)
	}
}

func TestMemoryTerms_PrefixSearchNoMatch(t *testing.T) {
	t.Parallel()
	ts := NewMemoryTerms()
	hits, err := ts.PrefixSearch(context.Background(), "zz", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}
