// Package storetest provides an in-memory vector store for tests.
package storetest

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// MemoryStore implements interfaces.VectorStore with brute-force L2 search
// over an in-memory map. Search can be scripted to fail for error-path
// tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]interfaces.Document

	// SearchErr, when set, is returned by every Search call
	SearchErr error

	// InsertErr, when set, is returned by every Insert call
	InsertErr error

	searchCalls []interfaces.SearchOptions
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]interfaces.Document)}
}

// Insert adds documents, overwriting existing IDs
func (m *MemoryStore) Insert(ctx context.Context, docs []interfaces.Document) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		if doc.ID == "" {
			return errors.New("document has empty ID")
		}
		m.docs[doc.ID] = doc
	}
	return nil
}

// Search returns the nearest documents by L2 distance
func (m *MemoryStore) Search(ctx context.Context, vector []float32, opts interfaces.SearchOptions) ([]interfaces.SearchResult, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, opts)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []interfaces.SearchResult
	for _, doc := range m.docs {
		if opts.Domain != "" && doc.Metadata.Domain != opts.Domain {
			continue
		}
		results = append(results, interfaces.SearchResult{
			Document: doc,
			Score:    1.0 - l2(vector, doc.Embedding)/2.0,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// Stats returns document counts
func (m *MemoryStore) Stats(ctx context.Context) (*interfaces.StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &interfaces.StoreStats{ByDomain: make(map[string]int64)}
	for _, doc := range m.docs {
		stats.TotalDocuments++
		stats.ByDomain[doc.Metadata.Domain]++
	}
	return stats, nil
}

// Reset removes all documents
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]interfaces.Document)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

// Len returns the number of stored documents
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Get returns a stored document by ID
func (m *MemoryStore) Get(id string) (interfaces.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok
}

// SearchCalls returns the options of every Search call seen so far
func (m *MemoryStore) SearchCalls() []interfaces.SearchOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]interfaces.SearchOptions, len(m.searchCalls))
	copy(out, m.searchCalls)
	return out
}

func l2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
