package agent

import (
	"context"
	"fmt"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// Retriever grounds the answer in documentation chunks from the vector
// store. Retrieval failure is deliberately soft: instead of recording an
// error it injects a fallback pseudo-document, letting the generator answer
// from general knowledge with an honest framing.
type Retriever struct {
	embedder      interfaces.Embedder
	store         interfaces.VectorStore
	topK          int
	topKPerDomain int
}

// NewRetriever creates the retrieval stage
func NewRetriever(embedder interfaces.Embedder, store interfaces.VectorStore, topK, topKPerDomain int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if topKPerDomain <= 0 {
		topKPerDomain = 3
	}
	return &Retriever{
		embedder:      embedder,
		store:         store,
		topK:          topK,
		topKPerDomain: topKPerDomain,
	}
}

// Run fills state.RetrievedDocs. Cross-domain queries search each involved
// domain separately so a dominant domain cannot crowd the others out of the
// result set.
func (r *Retriever) Run(ctx context.Context, state *State) {
	docs, err := r.retrieve(ctx, state)
	if err != nil {
		logger.Errorw("retrieval failed, falling back to general knowledge",
			"primary_domain", state.PrimaryDomain,
			"error", err,
		)
		primary := state.PrimaryDomain
		if primary == "" {
			primary = "unknown"
		}
		state.RetrievedDocs = []string{
			fmt.Sprintf("Error retrieving documentation. Using general knowledge about %s.", primary),
		}
		return
	}

	state.RetrievedDocs = docs
	logger.Infow("documents retrieved",
		"count", len(docs),
		"cross_domain", state.CrossDomain,
	)
}

func (r *Retriever) retrieve(ctx context.Context, state *State) ([]string, error) {
	vector, err := r.embedder.Embed(ctx, state.Query)
	if err != nil {
		return nil, err
	}

	if state.CrossDomain && len(state.SecondaryDomains) > 0 {
		domains := append([]string{state.PrimaryDomain}, state.SecondaryDomains...)
		var docs []string
		for _, d := range domains {
			results, err := r.store.Search(ctx, vector, interfaces.SearchOptions{
				Domain: d,
				TopK:   r.topKPerDomain,
			})
			if err != nil {
				return nil, err
			}
			for _, result := range results {
				docs = append(docs, result.Document.Content)
			}
		}
		return docs, nil
	}

	// Unknown or empty primary searches the whole corpus
	filter := state.PrimaryDomain
	if !domain.Valid(filter) {
		filter = ""
	}
	results, err := r.store.Search(ctx, vector, interfaces.SearchOptions{
		Domain: filter,
		TopK:   r.topK,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]string, len(results))
	for i, result := range results {
		docs[i] = result.Document.Content
	}
	return docs, nil
}
