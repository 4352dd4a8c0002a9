package embeddings

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// DefaultHashDimension matches the lightweight embedder the corpus was first
// indexed with
const DefaultHashDimension = 384

// HashEmbedder produces deterministic pseudo-embeddings from a SHA-512 of
// the lowercased text. It needs no API key and no model download, which
// makes it the backend for tests and offline development. Semantic quality
// is poor; do not use it for a production index.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hash embedder with the given dimension
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Name returns the embedder name
func (h *HashEmbedder) Name() string { return "hash" }

// Dimension returns the embedding dimension
func (h *HashEmbedder) Dimension() int { return h.dimension }

// Embed generates a deterministic embedding for a single text
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha512.Sum512([]byte(strings.ToLower(text)))
	hexDigest := hex.EncodeToString(sum[:])

	embedding := make([]float32, 0, h.dimension)
	for i := 0; i+2 <= len(hexDigest) && len(embedding) < h.dimension; i += 2 {
		v, _ := strconv.ParseUint(hexDigest[i:i+2], 16, 16)
		embedding = append(embedding, float32(v)/128.0-1.0)
	}

	// SHA-512 yields 64 values; pad shorter than requested dimensions
	for len(embedding) < h.dimension {
		embedding = append(embedding, 0.0)
	}

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = embedding
	}
	return out, nil
}
