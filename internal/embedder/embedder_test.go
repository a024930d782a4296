package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterministicEmbedder_Dimension(t *testing.T) {
	t.Parallel()
	e := NewDeterministic(32, 1)
	require.Equal(t, 32, e.Dimension())
	require.Equal(t, "deterministic", e.Name())
	require.NoError(t, e.Ping(context.Background()))
}

func TestDeterministicEmbedder_DeterministicAndNormalized(t *testing.T) {
	t.Parallel()
	e := NewDeterministic(16, 7)
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"search engines"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(ctx, []string{"search engines"})
	require.NoError(t, err)
	require.Equal(t, a, b)

	var sum float64
	for _, x := range a[0] {
		sum += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(sum), 0.001)
}

func TestDeterministicEmbedder_DifferentTextsDiffer(t *testing.T) {
	t.Parallel()
	e := NewDeterministic(16, 7)
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"cats"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(ctx, []string{"dogs"})
	require.NoError(t, err)
	require.NotEqual(t, a[0], b[0])
}

func TestDeterministicEmbedder_EmptyBatch(t *testing.T) {
	t.Parallel()
	e := NewDeterministic(8, 0)
	out, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
