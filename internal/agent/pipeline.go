package agent

import (
	"context"
	"time"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/session"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

// Pipeline runs the fixed stage sequence over a query
type Pipeline struct {
	classifier *Classifier
	planner    *Planner
	retriever  *Retriever
	generator  *Generator
	sessions   *session.Service
}

// New wires the four stages. sessions may be nil to disable conversation
// memory.
func New(provider shared.Provider, embedder interfaces.Embedder, store interfaces.VectorStore, cfg *config.Config, sessions *session.Service) *Pipeline {
	return &Pipeline{
		classifier: NewClassifier(provider),
		planner:    NewPlanner(provider),
		retriever:  NewRetriever(embedder, store, cfg.RAG.TopK, cfg.RAG.TopKPerDomain),
		generator:  NewGenerator(provider, sessions),
		sessions:   sessions,
	}
}

// Run executes classify, plan, retrieve, generate over the query and
// returns the final state. A non-nil error means the run as a whole did
// not complete, which only happens on context cancellation; stage failures
// land in State.Err instead.
func (p *Pipeline) Run(ctx context.Context, query, userID string) (*State, error) {
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "query is empty")
	}

	start := time.Now()
	state := &State{Query: query, UserID: userID}

	stages := []struct {
		name string
		run  func(context.Context, *State)
	}{
		{"classify", p.classifier.Run},
		{"plan", p.planner.Run},
		{"retrieve", p.retriever.Run},
		{"generate", p.generator.Run},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return state, errors.Wrapf(err, "pipeline aborted before %s", stage.name)
		}
		stage.run(ctx, state)
	}

	if !state.Failed() && state.Answer != "" && p.sessions != nil {
		p.sessions.Record(userID, query, state.Answer, state.PrimaryDomain)
	}

	logger.Infow("pipeline complete",
		"user_id", userID,
		"primary_domain", state.PrimaryDomain,
		"confidence", state.Confidence,
		"docs", len(state.RetrievedDocs),
		"failed", state.Failed(),
		"duration", time.Since(start),
	)

	return state, nil
}
