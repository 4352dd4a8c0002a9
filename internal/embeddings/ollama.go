package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
)

// DefaultOllamaURL is the local Ollama endpoint
const DefaultOllamaURL = "http://localhost:11434"

// OllamaConfig holds Ollama embedder configuration
type OllamaConfig struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// OllamaEmbedder implements interfaces.Embedder against a local Ollama
// instance
type OllamaEmbedder struct {
	config     OllamaConfig
	httpClient *http.Client
	dimension  int
}

// NewOllamaEmbedder creates a new Ollama embedder. When the dimension is not
// configured it is probed with a test embedding on first use.
func NewOllamaEmbedder(cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("model is required for ollama embedder")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	return &OllamaEmbedder{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		dimension:  cfg.Dimension,
	}, nil
}

// Name returns the embedder name
func (o *OllamaEmbedder) Name() string { return "ollama" }

// Dimension returns the embedding dimension, probing the model if it has
// not been determined yet
func (o *OllamaEmbedder) Dimension() int {
	if o.dimension == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if probe, err := o.Embed(ctx, "dimension probe"); err == nil {
			o.dimension = len(probe)
		}
	}
	return o.dimension
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody, err := json.Marshal(ollamaEmbedRequest{
		Model: o.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.config.BaseURL+"/api/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "create embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "ollama embed request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read embed response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("ollama embed returned status %d: %s",
			resp.StatusCode, string(body))
	}

	var embedResp ollamaEmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal embed response")
	}
	if len(embedResp.Embeddings) != len(texts) {
		return nil, errors.Newf("ollama returned %d embeddings for %d inputs",
			len(embedResp.Embeddings), len(texts))
	}

	if o.dimension == 0 && len(embedResp.Embeddings) > 0 {
		o.dimension = len(embedResp.Embeddings[0])
	}

	return embedResp.Embeddings, nil
}
