package embeddings

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
)

const (
	// DefaultOpenAIModel is the embedding model used for the production index
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension is the native dimension of text-embedding-3-small
	DefaultOpenAIDimension = 1536

	defaultBatchSize = 1000
)

// OpenAIConfig holds OpenAI embedder configuration
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Dimension int
	BatchSize int
	Timeout   time.Duration
}

// OpenAIEmbedder implements interfaces.Embedder against the OpenAI
// embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultOpenAIDimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(openaiConfig),
		config: cfg,
	}
}

// Name returns the embedder name
func (e *OpenAIEmbedder) Name() string { return "openai" }

// Dimension returns the embedding dimension
func (e *OpenAIEmbedder) Dimension() int { return e.config.Dimension }

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
// Requests are split into config batches to stay under the API input limit.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.config.Model),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "openai embeddings batch %d-%d", start, end)
		}
		if len(resp.Data) != end-start {
			return nil, errors.Newf("openai returned %d embeddings for %d inputs",
				len(resp.Data), end-start)
		}

		// The API tags each embedding with its input index; do not assume
		// response order
		for _, item := range resp.Data {
			embeddings[start+item.Index] = item.Embedding
		}

		logger.Debugw("embedded batch",
			"provider", "openai",
			"model", e.config.Model,
			"count", end-start,
		)
	}

	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, errors.Newf("missing embedding for input %d", i)
		}
	}

	return embeddings, nil
}
