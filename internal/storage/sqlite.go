package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// registerVecOnce loads the sqlite-vec extension into every connection
// opened afterwards. Registration is process-wide and must happen before
// the first sql.Open.
var registerVecOnce sync.Once

// SQLiteStore is the embedded vector store backend. Documents live in a
// plain documents table; embeddings are stored alongside as little-endian
// float32 blobs and searched brute force with the sqlite-vec
// vec_distance_L2 function. This keeps the whole index in a single file
// with no server dependency, which fits a corpus of tens of thousands of
// chunks.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	dimension int
	batchSize int
}

// NewSQLiteStore opens (or creates) the store at cfg.Path for embeddings of
// the given dimension. Opening a store created with a different dimension
// is an error: mixed-dimension search is meaningless, re-ingest after a
// reset instead.
func NewSQLiteStore(cfg config.SQLiteConfig, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		return nil, errors.New("embedding dimension must be positive")
	}

	registerVecOnce.Do(sqlite_vec.Auto)

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create store directory %s", dir)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite store at %s", cfg.Path)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate sqlite store")
	}

	store := &SQLiteStore{
		db:        db,
		path:      cfg.Path,
		dimension: dimension,
		batchSize: cfg.BatchSize,
	}

	if err := store.checkDimension(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infow("sqlite store opened",
		"path", cfg.Path,
		"dimension", dimension,
	)

	return store, nil
}

// checkDimension records the store dimension on first open and rejects
// mismatches afterwards
func (s *SQLiteStore) checkDimension() error {
	var stored string
	err := s.db.QueryRow("SELECT value FROM store_meta WHERE key = 'dimension'").Scan(&stored)
	if err == sql.ErrNoRows {
		_, err := s.db.Exec("INSERT INTO store_meta (key, value) VALUES ('dimension', ?)",
			strconv.Itoa(s.dimension))
		return errors.Wrap(err, "record store dimension")
	}
	if err != nil {
		return errors.Wrap(err, "read store dimension")
	}

	existing, err := strconv.Atoi(stored)
	if err != nil {
		return errors.Wrapf(err, "corrupt store dimension %q", stored)
	}
	if existing != s.dimension {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrDimensionMismatch,
				"store at %s holds %d-dimension embeddings, configured for %d",
				s.path, existing, s.dimension),
			"delete the store file and re-ingest to change the embedding dimension")
	}
	return nil
}

// Insert upserts documents and their embeddings in one transaction
func (s *SQLiteStore) Insert(ctx context.Context, docs []interfaces.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if doc.ID == "" {
			return errors.Wrap(errors.ErrInvalidInput, "document has empty ID")
		}
		if len(doc.Embedding) != s.dimension {
			return errors.Wrapf(errors.ErrDimensionMismatch,
				"document %s has %d-dimension embedding, store expects %d",
				doc.ID, len(doc.Embedding), s.dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin insert transaction")
	}
	defer tx.Rollback()

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, content, domain, source_file, file_type, chunk_index)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			domain = excluded.domain,
			source_file = excluded.source_file,
			file_type = excluded.file_type,
			chunk_index = excluded.chunk_index
	`)
	if err != nil {
		return errors.Wrap(err, "prepare documents insert")
	}
	defer docStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vec_documents (document_id, embedding)
		VALUES (?, ?)
		ON CONFLICT(document_id) DO UPDATE SET embedding = excluded.embedding
	`)
	if err != nil {
		return errors.Wrap(err, "prepare embeddings insert")
	}
	defer vecStmt.Close()

	for _, doc := range docs {
		if _, err := docStmt.ExecContext(ctx,
			doc.ID, doc.Content, doc.Metadata.Domain, doc.Metadata.SourceFile,
			doc.Metadata.FileType, doc.Metadata.ChunkIndex,
		); err != nil {
			return errors.Wrapf(err, "insert document %s", doc.ID)
		}

		blob, err := SerializeEmbedding(doc.Embedding)
		if err != nil {
			return errors.Wrapf(err, "serialize embedding for %s", doc.ID)
		}
		if _, err := vecStmt.ExecContext(ctx, doc.ID, blob); err != nil {
			return errors.Wrapf(err, "insert embedding for %s", doc.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit insert transaction")
	}

	logger.Debugw("inserted documents", "count", len(docs))
	return nil
}

// Search returns the documents nearest to the query vector by L2 distance,
// optionally filtered to a single domain. Similarity is reported as
// 1 - distance/2, so identical normalized vectors score 1.0.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, opts interfaces.SearchOptions) ([]interfaces.SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"query vector has %d dimensions, store expects %d", len(vector), s.dimension)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	blob, err := SerializeEmbedding(vector)
	if err != nil {
		return nil, errors.Wrap(err, "serialize query vector")
	}

	query := `
		SELECT d.id, d.content, d.domain, d.source_file, d.file_type, d.chunk_index,
		       vec_distance_L2(v.embedding, ?) AS distance
		FROM vec_documents v
		JOIN documents d ON v.document_id = d.id
	`
	args := []interface{}{blob}
	if opts.Domain != "" {
		query += " WHERE d.domain = ?"
		args = append(args, opts.Domain)
	}
	query += " ORDER BY distance LIMIT ?"
	args = append(args, topK)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "vector search")
	}
	defer rows.Close()

	var results []interfaces.SearchResult
	for rows.Next() {
		var doc interfaces.Document
		var distance float32
		if err := rows.Scan(
			&doc.ID, &doc.Content, &doc.Metadata.Domain, &doc.Metadata.SourceFile,
			&doc.Metadata.FileType, &doc.Metadata.ChunkIndex, &distance,
		); err != nil {
			return nil, errors.Wrapf(err, "scan search result %d", len(results))
		}

		similarity := 1.0 - distance/2.0
		if similarity < 0 {
			similarity = 0
		}
		results = append(results, interfaces.SearchResult{
			Document: doc,
			Score:    similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate search results")
	}

	logger.Debugw("vector search completed",
		"domain", opts.Domain,
		"top_k", topK,
		"results", len(results),
	)

	return results, nil
}

// Stats returns total and per-domain document counts
func (s *SQLiteStore) Stats(ctx context.Context) (*interfaces.StoreStats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM documents GROUP BY domain")
	if err != nil {
		return nil, errors.Wrap(err, "count documents")
	}
	defer rows.Close()

	stats := &interfaces.StoreStats{ByDomain: make(map[string]int64)}
	for rows.Next() {
		var domain string
		var count int64
		if err := rows.Scan(&domain, &count); err != nil {
			return nil, errors.Wrap(err, "scan domain count")
		}
		stats.ByDomain[domain] = count
		stats.TotalDocuments += count
	}
	return stats, rows.Err()
}

// Reset removes every document and embedding, keeping the recorded
// dimension so the store can be re-ingested with the same embedder
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reset transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_documents"); err != nil {
		return errors.Wrap(err, "clear embeddings")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return errors.Wrap(err, "clear documents")
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO store_meta (key, value) VALUES ('dimension', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		strconv.Itoa(s.dimension)); err != nil {
		return errors.Wrap(err, "record store dimension")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit reset transaction")
	}

	logger.Infow("store reset", "path", s.path)
	return nil
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
