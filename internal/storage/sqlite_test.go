package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

func newTestStore(t *testing.T, dimension int) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(config.SQLiteConfig{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		BatchSize: 100,
	}, dimension)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDoc(id, content, domain string, embedding []float32) interfaces.Document {
	return interfaces.Document{
		ID:      id,
		Content: content,
		Metadata: interfaces.Metadata{
			Domain:     domain,
			SourceFile: "test.md",
			FileType:   "markdown",
			ChunkIndex: 0,
		},
		Embedding: embedding,
	}
}

func TestSQLiteStoreInsertAndSearch(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("fsm/a.md#0", "work order dispatching", "fsm", []float32{1, 0, 0}),
		testDoc("fsm/a.md#1", "technician scheduling", "fsm", []float32{0, 1, 0}),
		testDoc("cpi/b.md#0", "iflow configuration", "cpi", []float32{0, 0, 1}),
	}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, interfaces.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Exact match first with similarity 1.0
	assert.Equal(t, "fsm/a.md#0", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "work order dispatching", results[0].Document.Content)
	assert.Equal(t, "fsm", results[0].Document.Metadata.Domain)
}

func TestSQLiteStoreDomainFilter(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("fsm/a.md#0", "fsm doc", "fsm", []float32{1, 0, 0}),
		testDoc("cpi/b.md#0", "cpi doc", "cpi", []float32{1, 0, 0}),
	}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, interfaces.SearchOptions{
		Domain: "cpi",
		TopK:   10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cpi/b.md#0", results[0].Document.ID)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("cpq/p.md#0", "old content", "cpq", []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("cpq/p.md#0", "new content", "cpq", []float32{0, 1, 0}),
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDocuments)

	results, err := store.Search(ctx, []float32{0, 1, 0}, interfaces.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new content", results[0].Document.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestSQLiteStoreStats(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("fsm/a.md#0", "a", "fsm", []float32{1, 0}),
		testDoc("fsm/a.md#1", "b", "fsm", []float32{0, 1}),
		testDoc("cpi/b.md#0", "c", "cpi", []float32{1, 1}),
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalDocuments)
	assert.Equal(t, int64(2), stats.ByDomain["fsm"])
	assert.Equal(t, int64(1), stats.ByDomain["cpi"])
}

func TestSQLiteStoreReset(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("fsm/a.md#0", "a", "fsm", []float32{1, 0}),
	}))
	require.NoError(t, store.Reset(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalDocuments)

	// Store stays usable after reset
	require.NoError(t, store.Insert(ctx, []interfaces.Document{
		testDoc("fsm/a.md#0", "a", "fsm", []float32{1, 0}),
	}))
}

func TestSQLiteStoreDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dims.db")

	store, err := NewSQLiteStore(config.SQLiteConfig{Path: path}, 4)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening with a different dimension is rejected
	_, err = NewSQLiteStore(config.SQLiteConfig{Path: path}, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	// Reopening with the original dimension works
	store, err = NewSQLiteStore(config.SQLiteConfig{Path: path}, 4)
	require.NoError(t, err)
	store.Close()
}

func TestSQLiteStoreRejectsWrongEmbeddingSize(t *testing.T) {
	store := newTestStore(t, 3)

	err := store.Insert(context.Background(), []interfaces.Document{
		testDoc("fsm/a.md#0", "a", "fsm", []float32{1, 0}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	_, err = store.Search(context.Background(), []float32{1}, interfaces.SearchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestSQLiteStoreEmptyInsert(t *testing.T) {
	store := newTestStore(t, 2)
	assert.NoError(t, store.Insert(context.Background(), nil))
}
