package hashing_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/embedding/hashing"
)

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbedBatch(t *testing.T) {
	e := hashing.NewEmbedder(64)
	require.Equal(t, 64, e.Dimension())
	require.Equal(t, "hashing", e.Name())

	vecs, err := e.EmbedBatch(context.Background(), []string{
		"The cat sat on the mat",
		"the CAT sat on the mat!",
		"Quarterly revenue grew in Europe",
		"the of and",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for _, v := range vecs[:3] {
		assert.Len(t, v, 64)
		assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-9)
	}
	assert.Equal(t, vecs[0], vecs[1], "case and punctuation must not matter")
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
	assert.Zero(t, dot(vecs[3], vecs[3]), "stopword-only text embeds to the zero vector")
}

func TestEmbedBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := hashing.NewEmbedder(0).EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultDimension(t *testing.T) {
	assert.Equal(t, hashing.DefaultDimension, hashing.NewEmbedder(-3).Dimension())
}
