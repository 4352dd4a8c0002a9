// Package embeddings provides the embedding backends used to index
// documentation and embed queries. All backends implement
// interfaces.Embedder.
package embeddings

import (
	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// New creates an embedder for the configured provider
func New(cfg *config.Config) (interfaces.Embedder, error) {
	switch cfg.Embeddings.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, errors.New("openai embeddings require OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:    cfg.LLM.OpenAIAPIKey,
			Model:     cfg.Embeddings.Model,
			Dimension: cfg.Embeddings.Dimension,
			BatchSize: cfg.Embeddings.BatchSize,
		}), nil
	case "ollama":
		return NewOllamaEmbedder(OllamaConfig{
			BaseURL:   cfg.Embeddings.OllamaURL,
			Model:     cfg.Embeddings.Model,
			Dimension: cfg.Embeddings.Dimension,
		})
	case "hash":
		return NewHashEmbedder(cfg.Embeddings.Dimension), nil
	default:
		return nil, errors.Newf("unknown embeddings provider: %s", cfg.Embeddings.Provider)
	}
}
