package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderBatching(t *testing.T) {
	var batchSizes []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batchSizes = append(batchSizes, len(req.Input))

		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 1.0},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Dimension: 2,
		BatchSize: 2,
	})

	texts := []string{"a", "b", "c", "d", "e"}
	embeddings, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, embeddings, 5)

	// 5 inputs with batch size 2 means batches of 2, 2, 1
	assert.Equal(t, []int{2, 2, 1}, batchSizes)

	// Index within each batch restarts at zero
	assert.Equal(t, []float32{0, 1}, embeddings[0])
	assert.Equal(t, []float32{1, 1}, embeddings[1])
	assert.Equal(t, []float32{0, 1}, embeddings[4])
}

func TestOpenAIEmbedderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:  "bad-key",
		BaseURL: server.URL,
	})

	_, err := embedder.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestOpenAIEmbedderDefaults(t *testing.T) {
	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "key"})
	assert.Equal(t, "openai", embedder.Name())
	assert.Equal(t, DefaultOpenAIDimension, embedder.Dimension())
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "key"})
	embeddings, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, embeddings)
}
