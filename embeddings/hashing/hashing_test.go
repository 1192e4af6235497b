package hashing_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/embeddings/hashing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbedder(t *testing.T) {
	_, err := hashing.New(0)
	assert.ErrorIs(t, err, hashing.ErrInvalidDimension)

	e, err := hashing.New(64)
	require.NoError(t, err)

	dim, err := e.GetDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, dim)

	vecs, err := e.EmbedDocuments(context.Background(), []string{
		"LangSmith helps you test LLM apps",
		"langsmith TESTS llm apps",
		"bananas are yellow",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 64)
	}

	again, err := e.EmbedQuery(context.Background(), "LangSmith helps you test LLM apps")
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again, "deterministic")

	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestEmbedder_EmptyText(t *testing.T) {
	e, err := hashing.New(8)
	require.NoError(t, err)

	v, err := e.EmbedQuery(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, hashing.Tokenize("Hello, WORLD! 42"))
}
