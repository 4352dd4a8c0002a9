package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// Stats summarizes one ingestion run
type Stats struct {
	FilesProcessed int
	FilesFailed    int
	ChunksIndexed  int
	ByDomain       map[string]int
	Duration       time.Duration
}

// Options tunes an ingestion run
type Options struct {
	// MaxConcurrency is the number of files processed in parallel
	MaxConcurrency int

	// EmbedBatchSize bounds each embedding API call
	EmbedBatchSize int

	// StoreBatchSize bounds each store insert
	StoreBatchSize int
}

// Ingester loads, chunks, embeds, and indexes the documentation corpus.
// Chunk IDs are deterministic per source file and index, so re-running
// ingestion over the same corpus overwrites rather than duplicates.
type Ingester struct {
	loader   *Loader
	chunker  *Chunker
	embedder interfaces.Embedder
	store    interfaces.VectorStore
	opts     Options
}

// NewIngester creates an ingester over the given components
func NewIngester(loader *Loader, chunker *Chunker, embedder interfaces.Embedder, store interfaces.VectorStore, opts Options) *Ingester {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 1000
	}
	if opts.StoreBatchSize <= 0 {
		opts.StoreBatchSize = 1000
	}
	return &Ingester{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		opts:     opts,
	}
}

// fileResult reports the outcome of processing one file
type fileResult struct {
	file    string
	domain  string
	chunks  int
	failure error
}

// Run ingests the whole corpus and returns run statistics. Individual file
// failures are counted, not fatal; the run fails only when loading finds no
// corpus at all or the context is cancelled.
func (ing *Ingester) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	files, err := ing.loader.Load()
	if err != nil {
		return nil, err
	}

	logger.Infow("starting ingestion",
		"files", len(files),
		"workers", ing.opts.MaxConcurrency,
	)

	fileChan := make(chan File, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < ing.opts.MaxConcurrency; i++ {
		wg.Add(1)
		go ing.worker(ctx, fileChan, resultChan, &wg)
	}

	go func() {
		defer close(fileChan)
		for _, file := range files {
			select {
			case fileChan <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	stats := &Stats{ByDomain: make(map[string]int)}
	for result := range resultChan {
		if result.failure != nil {
			stats.FilesFailed++
			logger.Errorw("file ingestion failed",
				"file", result.file,
				"error", result.failure,
			)
			continue
		}
		stats.FilesProcessed++
		stats.ChunksIndexed += result.chunks
		stats.ByDomain[result.domain] += result.chunks
	}

	stats.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return stats, errors.Wrap(err, "ingestion interrupted")
	}

	logger.Infow("ingestion complete",
		"files_processed", stats.FilesProcessed,
		"files_failed", stats.FilesFailed,
		"chunks_indexed", stats.ChunksIndexed,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (ing *Ingester) worker(ctx context.Context, fileChan <-chan File, resultChan chan<- fileResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case file, ok := <-fileChan:
			if !ok {
				return
			}
			result := ing.processFile(ctx, file)
			select {
			case resultChan <- result:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (ing *Ingester) processFile(ctx context.Context, file File) fileResult {
	result := fileResult{file: file.Path, domain: string(file.Domain)}

	chunks := ing.chunker.Split(file.Content)
	if len(chunks) == 0 {
		result.failure = errors.New("file produced no chunks")
		return result
	}

	docs := make([]interfaces.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = interfaces.Document{
			ID:      ChunkID(string(file.Domain), file.SourceFile(), i),
			Content: chunk,
			Metadata: interfaces.Metadata{
				Domain:     string(file.Domain),
				SourceFile: file.SourceFile(),
				FileType:   file.FileType,
				ChunkIndex: i,
			},
		}
	}

	// Embed in API-sized batches
	for start := 0; start < len(docs); start += ing.opts.EmbedBatchSize {
		end := start + ing.opts.EmbedBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = docs[i].Content
		}

		embeddings, err := ing.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			result.failure = errors.Wrapf(err, "embed chunks %d-%d", start, end)
			return result
		}
		for i, embedding := range embeddings {
			docs[start+i].Embedding = embedding
		}
	}

	// Insert in store-sized batches
	for start := 0; start < len(docs); start += ing.opts.StoreBatchSize {
		end := start + ing.opts.StoreBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := ing.store.Insert(ctx, docs[start:end]); err != nil {
			result.failure = errors.Wrapf(err, "insert chunks %d-%d", start, end)
			return result
		}
	}

	result.chunks = len(docs)
	return result
}

// ChunkID builds the deterministic document ID for a chunk
func ChunkID(domain, sourceFile string, index int) string {
	return fmt.Sprintf("%s/%s#%d", domain, sourceFile, index)
}
