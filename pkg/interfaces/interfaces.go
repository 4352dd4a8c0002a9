package interfaces

import (
	"context"
)

// Document represents a single chunk of documentation stored in the vector
// database. ID is deterministic per source file and chunk index so that
// re-ingesting the same corpus overwrites rather than duplicates.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Metadata carries the retrieval attributes attached to every chunk
type Metadata struct {
	Domain     string `json:"domain"`
	SourceFile string `json:"source_file"`
	FileType   string `json:"file_type"`
	ChunkIndex int    `json:"chunk_index"`
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension
	Dimension() int

	// Name returns the embedder name
	Name() string
}

// SearchOptions controls a vector search
type SearchOptions struct {
	// Domain restricts results to a single domain when non-empty
	Domain string

	// TopK is the maximum number of results to return
	TopK int
}

// SearchResult is a document with its similarity score (higher is better)
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// StoreStats describes the contents of a vector store
type StoreStats struct {
	TotalDocuments int64            `json:"total_documents"`
	ByDomain       map[string]int64 `json:"by_domain"`
}

// VectorStore persists documents with embeddings and serves similarity search
type VectorStore interface {
	// Insert adds documents to the store. Documents with existing IDs are
	// overwritten.
	Insert(ctx context.Context, docs []Document) error

	// Search returns the documents nearest to the query vector
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchResult, error)

	// Stats returns document counts
	Stats(ctx context.Context) (*StoreStats, error)

	// Reset removes all documents
	Reset(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
