package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalProvider(t *testing.T) {
	p, err := NewLocalProvider(NewCache(10))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("deterministic unit vectors", func(t *testing.T) {
		a, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "SQLite stores the index"})
		require.NoError(t, err)
		b, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "SQLite stores the index"})
		require.NoError(t, err)

		assert.Equal(t, a.Vector, b.Vector)
		assert.Len(t, a.Vector, LocalDimension)
		assert.InDelta(t, 1.0, cosine(a.Vector, a.Vector), 1e-6)
		assert.Equal(t, ProviderLocal, a.Provider)
		assert.Equal(t, LocalModel, a.Model)
	})

	t.Run("shared vocabulary is closer", func(t *testing.T) {
		q, _ := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "sqlite storage"})
		near, _ := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "We chose SQLite for storage of vectors."})
		far, _ := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Onboarding checklist for new hires."})

		assert.Greater(t, cosine(q.Vector, near.Vector), cosine(q.Vector, far.Vector))
	})

	t.Run("case and punctuation insensitive", func(t *testing.T) {
		a, _ := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Hello, World!"})
		b, _ := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello world"})
		assert.InDelta(t, 1.0, cosine(a.Vector, b.Vector), 1e-6)
	})

	t.Run("batch", func(t *testing.T) {
		resp, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"a", "b"}})
		require.NoError(t, err)
		assert.Len(t, resp.Embeddings, 2)
		assert.Equal(t, ProviderLocal, resp.Provider)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := p.GenerateEmbedding(ctx, EmbeddingRequest{})
		assert.ErrorIs(t, err, ErrEmptyText)
		_, err = p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{""}})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, LocalDimension, p.Dimension())
		assert.Equal(t, ProviderLocal, p.Provider())
		assert.NoError(t, p.Close())
	})
}
