package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

const (
	milvusIndexNlist   = 128
	milvusSearchNprobe = 16
)

// MilvusStore is the server-backed vector store for deployments where the
// index outgrows a single sqlite file or must be shared between replicas.
type MilvusStore struct {
	client         client.Client
	collectionName string
	dimension      int
}

// NewMilvusStore connects to Milvus and ensures the collection exists,
// is indexed, and is loaded into memory.
func NewMilvusStore(ctx context.Context, cfg config.StorageConfig, dimension int) (*MilvusStore, error) {
	if dimension <= 0 {
		return nil, errors.New("embedding dimension must be positive")
	}
	if cfg.Milvus.Address == "" {
		return nil, errors.New("milvus address is required")
	}

	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Milvus.Address,
		Username: cfg.Milvus.Username,
		Password: cfg.Milvus.Password,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "connect to milvus at %s: %v", cfg.Milvus.Address, err)
	}

	store := &MilvusStore{
		client:         c,
		collectionName: cfg.Collection,
		dimension:      dimension,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	logger.Infow("milvus store opened",
		"address", cfg.Milvus.Address,
		"collection", cfg.Collection,
		"dimension", dimension,
	)

	return store, nil
}

func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return errors.Wrap(err, "check collection existence")
	}

	if !exists {
		if err := m.client.CreateCollection(ctx, m.schema(), entity.DefaultShardNumber); err != nil {
			return errors.Wrap(err, "create collection")
		}

		index, err := entity.NewIndexIvfFlat(entity.L2, milvusIndexNlist)
		if err != nil {
			return errors.Wrap(err, "build index definition")
		}
		if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", index, false); err != nil {
			return errors.Wrap(err, "create index")
		}
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return errors.Wrap(err, "load collection")
	}
	return nil
}

func (m *MilvusStore) schema() *entity.Schema {
	return &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "SAP CX documentation chunks",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:       "content",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "65535"},
			},
			{
				Name:       "domain",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "source_file",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "1000"},
			},
			{
				Name:       "file_type",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "16"},
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(m.dimension)},
			},
		},
	}
}

// Insert upserts documents column-wise
func (m *MilvusStore) Insert(ctx context.Context, docs []interfaces.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	domains := make([]string, len(docs))
	sourceFiles := make([]string, len(docs))
	fileTypes := make([]string, len(docs))
	chunkIndexes := make([]int64, len(docs))
	embeddings := make([][]float32, len(docs))

	for i, doc := range docs {
		if len(doc.Embedding) != m.dimension {
			return errors.Wrapf(errors.ErrDimensionMismatch,
				"document %s has %d-dimension embedding, collection expects %d",
				doc.ID, len(doc.Embedding), m.dimension)
		}
		ids[i] = doc.ID
		contents[i] = doc.Content
		domains[i] = doc.Metadata.Domain
		sourceFiles[i] = doc.Metadata.SourceFile
		fileTypes[i] = doc.Metadata.FileType
		chunkIndexes[i] = int64(doc.Metadata.ChunkIndex)
		embeddings[i] = doc.Embedding
	}

	_, err := m.client.Upsert(ctx, m.collectionName, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnVarChar("domain", domains),
		entity.NewColumnVarChar("source_file", sourceFiles),
		entity.NewColumnVarChar("file_type", fileTypes),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnFloatVector("embedding", m.dimension, embeddings),
	)
	if err != nil {
		return errors.Wrap(err, "upsert documents")
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return errors.Wrap(err, "flush collection")
	}
	return nil
}

// Search performs vector search, optionally filtered to one domain
func (m *MilvusStore) Search(ctx context.Context, vector []float32, opts interfaces.SearchOptions) ([]interfaces.SearchResult, error) {
	if len(vector) != m.dimension {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"query vector has %d dimensions, collection expects %d", len(vector), m.dimension)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	expr := ""
	if opts.Domain != "" {
		expr = fmt.Sprintf("domain == %q", opts.Domain)
	}

	searchParams, err := entity.NewIndexIvfFlatSearchParam(milvusSearchNprobe)
	if err != nil {
		return nil, errors.Wrap(err, "build search params")
	}

	searchResults, err := m.client.Search(ctx, m.collectionName, nil, expr,
		[]string{"id", "content", "domain", "source_file", "file_type", "chunk_index"},
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding", entity.L2, topK, searchParams,
	)
	if err != nil {
		return nil, errors.Wrap(err, "vector search")
	}

	var results []interfaces.SearchResult
	for _, sr := range searchResults {
		for i := 0; i < sr.ResultCount; i++ {
			doc := interfaces.Document{}
			for _, field := range sr.Fields {
				switch field.Name() {
				case "id":
					doc.ID, _ = field.GetAsString(i)
				case "content":
					doc.Content, _ = field.GetAsString(i)
				case "domain":
					doc.Metadata.Domain, _ = field.GetAsString(i)
				case "source_file":
					doc.Metadata.SourceFile, _ = field.GetAsString(i)
				case "file_type":
					doc.Metadata.FileType, _ = field.GetAsString(i)
				case "chunk_index":
					idx, _ := field.GetAsInt64(i)
					doc.Metadata.ChunkIndex = int(idx)
				}
			}

			similarity := 1.0 - sr.Scores[i]/2.0
			if similarity < 0 {
				similarity = 0
			}
			results = append(results, interfaces.SearchResult{
				Document: doc,
				Score:    similarity,
			})
		}
	}

	return results, nil
}

// Stats returns total and per-domain counts via filtered count queries
func (m *MilvusStore) Stats(ctx context.Context) (*interfaces.StoreStats, error) {
	stats := &interfaces.StoreStats{ByDomain: make(map[string]int64)}

	total, err := m.countWhere(ctx, "")
	if err != nil {
		return nil, err
	}
	stats.TotalDocuments = total

	for _, d := range domain.Strings() {
		count, err := m.countWhere(ctx, fmt.Sprintf("domain == %q", d))
		if err != nil {
			return nil, err
		}
		if count > 0 {
			stats.ByDomain[d] = count
		}
	}
	return stats, nil
}

func (m *MilvusStore) countWhere(ctx context.Context, expr string) (int64, error) {
	result, err := m.client.Query(ctx, m.collectionName, nil, expr, []string{"count(*)"})
	if err != nil {
		return 0, errors.Wrap(err, "count query")
	}
	for _, column := range result {
		if column.Len() > 0 {
			return column.GetAsInt64(0)
		}
	}
	return 0, nil
}

// Reset drops and recreates the collection
func (m *MilvusStore) Reset(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return errors.Wrap(err, "check collection existence")
	}
	if exists {
		if err := m.client.DropCollection(ctx, m.collectionName); err != nil {
			return errors.Wrap(err, "drop collection")
		}
	}
	return m.ensureCollection(ctx)
}

// Close disconnects from Milvus
func (m *MilvusStore) Close() error {
	return m.client.Close()
}
