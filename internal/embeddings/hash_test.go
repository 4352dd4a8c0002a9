package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	embedder := NewHashEmbedder(384)
	ctx := context.Background()

	first, err := embedder.Embed(ctx, "Service Cloud ticket configuration")
	require.NoError(t, err)
	second, err := embedder.Embed(ctx, "Service Cloud ticket configuration")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashEmbedderCaseInsensitive(t *testing.T) {
	embedder := NewHashEmbedder(384)
	ctx := context.Background()

	lower, err := embedder.Embed(ctx, "cpi integration setup")
	require.NoError(t, err)
	upper, err := embedder.Embed(ctx, "CPI Integration Setup")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
}

func TestHashEmbedderDimension(t *testing.T) {
	tests := []struct {
		name      string
		dimension int
		want      int
	}{
		{name: "default", dimension: 0, want: DefaultHashDimension},
		{name: "small", dimension: 8, want: 8},
		{name: "sha512 native", dimension: 64, want: 64},
		{name: "padded", dimension: 512, want: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := NewHashEmbedder(tt.dimension)
			assert.Equal(t, tt.want, embedder.Dimension())

			embedding, err := embedder.Embed(context.Background(), "work orders")
			require.NoError(t, err)
			assert.Len(t, embedding, tt.want)
		})
	}
}

func TestHashEmbedderValueRange(t *testing.T) {
	embedder := NewHashEmbedder(64)

	embedding, err := embedder.Embed(context.Background(), "pricing rules for CPQ")
	require.NoError(t, err)

	for i, v := range embedding {
		assert.GreaterOrEqual(t, v, float32(-1.0), "value %d out of range", i)
		assert.Less(t, v, float32(1.0), "value %d out of range", i)
	}
}

func TestHashEmbedderPadding(t *testing.T) {
	// SHA-512 only provides 64 values; the rest must be zero padding
	embedder := NewHashEmbedder(100)

	embedding, err := embedder.Embed(context.Background(), "fsm scheduling")
	require.NoError(t, err)
	require.Len(t, embedding, 100)

	for i := 64; i < 100; i++ {
		assert.Equal(t, float32(0.0), embedding[i])
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	embedder := NewHashEmbedder(64)

	embedding, err := embedder.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, embedding, 64)
}

func TestHashEmbedderDifferentTexts(t *testing.T) {
	embedder := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := embedder.Embed(ctx, "sales opportunities")
	require.NoError(t, err)
	b, err := embedder.Embed(ctx, "field service work orders")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashEmbedderBatchOrder(t *testing.T) {
	embedder := NewHashEmbedder(64)
	ctx := context.Background()

	texts := []string{"first text", "second text", "third text"}
	batch, err := embedder.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}
