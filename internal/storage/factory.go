// Package storage provides the vector store backends. The sqlite backend
// embeds the index in a single file; the milvus backend talks to a Milvus
// server. Both implement interfaces.VectorStore.
package storage

import (
	"context"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// New creates the configured vector store backend for embeddings of the
// given dimension
func New(ctx context.Context, cfg *config.Config, dimension int) (interfaces.VectorStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Storage.SQLite, dimension)
	case "milvus":
		return NewMilvusStore(ctx, cfg.Storage, dimension)
	default:
		return nil, errors.Newf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
