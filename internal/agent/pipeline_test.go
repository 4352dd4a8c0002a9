package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/embeddings"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/llmtest"
	"github.com/Beny9313/whatsapp-ai-bot/internal/session"
	"github.com/Beny9313/whatsapp-ai-bot/internal/storage/storetest"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

const (
	classifyFragment = "Classify this query"
	planFragment     = "step-by-step plan"
	generateFragment = "Answer using ONLY"
)

func seedStore(t *testing.T, store *storetest.MemoryStore, embedder interfaces.Embedder, domain string, contents ...string) {
	t.Helper()
	ctx := context.Background()
	docs := make([]interfaces.Document, len(contents))
	for i, content := range contents {
		embedding, err := embedder.Embed(ctx, content)
		require.NoError(t, err)
		docs[i] = interfaces.Document{
			ID:        domain + "/seed.md#" + content,
			Content:   content,
			Metadata:  interfaces.Metadata{Domain: domain, SourceFile: "seed.md", FileType: "markdown"},
			Embedding: embedding,
		}
	}
	require.NoError(t, store.Insert(ctx, docs))
}

func newTestPipeline(provider *llmtest.FakeProvider, store *storetest.MemoryStore, sessions *session.Service) *Pipeline {
	cfg := config.DefaultConfig()
	return New(provider, embeddings.NewHashEmbedder(16), store, cfg, sessions)
}

func TestPipelineSingleDomain(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment,
		`{"primary_domain": "Service_Cloud", "secondary_domains": [], "is_cross_domain": false, "confidence": 0.92, "reasoning": "ticket question"}`)
	provider.AddResponse(planFragment, "1. Look up routing rules\n2. Summarize steps")
	provider.AddResponse(generateFragment, "Routing rules are configured in the admin console.")

	store := storetest.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder(16)
	seedStore(t, store, embedder, "service_cloud",
		"Routing rules doc one", "Routing rules doc two", "Routing rules doc three",
		"Routing rules doc four", "Routing rules doc five", "Routing rules doc six")
	seedStore(t, store, embedder, "cpi", "CPI doc")

	pipeline := newTestPipeline(provider, store, nil)

	state, err := pipeline.Run(context.Background(), "How do I configure ticket routing?", "user-1")
	require.NoError(t, err)
	require.False(t, state.Failed(), "unexpected error: %s", state.Err)

	// Classifier output is normalized
	assert.Equal(t, "service_cloud", state.PrimaryDomain)
	assert.InDelta(t, 0.92, state.Confidence, 1e-9)
	assert.NotEmpty(t, state.Plan)
	assert.Equal(t, "Routing rules are configured in the admin console.", state.Answer)

	// Single-domain retrieval: one filtered search capped at top_k
	calls := store.SearchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "service_cloud", calls[0].Domain)
	assert.Equal(t, 5, calls[0].TopK)
	assert.Len(t, state.RetrievedDocs, 5)
}

func TestPipelineCrossDomain(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment,
		`{"primary_domain": "fsm", "secondary_domains": ["cpi"], "is_cross_domain": true, "confidence": 0.88, "reasoning": "work orders via integration"}`)
	provider.AddResponse(planFragment, "1. FSM work orders\n2. CPI flows\n3. Combine")
	provider.AddResponse(generateFragment, "Work orders reach CPI through an iFlow.")

	store := storetest.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder(16)
	seedStore(t, store, embedder, "fsm", "fsm one", "fsm two", "fsm three", "fsm four")
	seedStore(t, store, embedder, "cpi", "cpi one", "cpi two", "cpi three", "cpi four")

	pipeline := newTestPipeline(provider, store, nil)

	state, err := pipeline.Run(context.Background(), "How do FSM work orders integrate with CPI?", "user-1")
	require.NoError(t, err)
	require.False(t, state.Failed())

	// Per-domain searches at top_k_per_domain each
	calls := store.SearchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "fsm", calls[0].Domain)
	assert.Equal(t, 3, calls[0].TopK)
	assert.Equal(t, "cpi", calls[1].Domain)
	assert.Equal(t, 3, calls[1].TopK)
	assert.Len(t, state.RetrievedDocs, 6)
}

func TestPipelineClassificationFailureContinues(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment, "this is not json at all")
	provider.AddResponse(planFragment, "1. Try anyway")
	provider.AddResponse(generateFragment, "Best effort answer.")

	store := storetest.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder(16)
	seedStore(t, store, embedder, "fsm", "some doc")

	pipeline := newTestPipeline(provider, store, nil)

	state, err := pipeline.Run(context.Background(), "Mystery question", "user-1")
	require.NoError(t, err)

	assert.Contains(t, state.Err, "classification failed")
	assert.Empty(t, state.PrimaryDomain)

	// Later stages still ran: unfiltered retrieval plus generation
	calls := store.SearchCalls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Domain)
	assert.Equal(t, "Best effort answer.", state.Answer)
}

func TestPipelineRetrievalFailureFallsBack(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment,
		`{"primary_domain": "cpq", "secondary_domains": [], "is_cross_domain": false, "confidence": 0.9, "reasoning": "pricing"}`)
	provider.AddResponse(planFragment, "1. Pricing rules")
	provider.AddResponse(generateFragment, "General pricing answer.")

	store := storetest.NewMemoryStore()
	store.SearchErr = assert.AnError

	pipeline := newTestPipeline(provider, store, nil)

	state, err := pipeline.Run(context.Background(), "How do pricing rules work?", "user-1")
	require.NoError(t, err)

	// Retrieval failure injects the fallback document without recording an
	// error, so the user still gets an answer
	assert.False(t, state.Failed())
	require.Len(t, state.RetrievedDocs, 1)
	assert.Equal(t, "Error retrieving documentation. Using general knowledge about cpq.", state.RetrievedDocs[0])
	assert.Equal(t, "General pricing answer.", state.Answer)
}

func TestPipelineGenerationFailure(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment,
		`{"primary_domain": "fsm", "secondary_domains": [], "is_cross_domain": false, "confidence": 0.9, "reasoning": "fsm"}`)
	provider.AddResponse(planFragment, "1. Plan")
	provider.AddError(generateFragment, assert.AnError)

	store := storetest.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder(16)
	seedStore(t, store, embedder, "fsm", "doc")

	pipeline := newTestPipeline(provider, store, nil)

	state, err := pipeline.Run(context.Background(), "Scheduling question", "user-1")
	require.NoError(t, err)

	assert.Contains(t, state.Err, "generation failed")
	assert.Equal(t, FallbackAnswer, state.Answer)
}

func TestPipelineRecordsSession(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment,
		`{"primary_domain": "cpi", "secondary_domains": [], "is_cross_domain": false, "confidence": 0.9, "reasoning": "cpi"}`)
	provider.AddResponse(planFragment, "1. Plan")
	provider.AddResponse(generateFragment, "iFlow answer.")

	store := storetest.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder(16)
	seedStore(t, store, embedder, "cpi", "doc")

	sessions := session.NewService(10)
	pipeline := newTestPipeline(provider, store, sessions)

	_, err := pipeline.Run(context.Background(), "What is an iFlow?", "whatsapp:+123")
	require.NoError(t, err)

	history := sessions.History("whatsapp:+123", 10)
	require.Len(t, history, 1)
	assert.Equal(t, "What is an iFlow?", history[0].Query)
	assert.Equal(t, "iFlow answer.", history[0].Answer)
	assert.Equal(t, "cpi", history[0].Domain)
}

func TestPipelineDoesNotRecordFailedRuns(t *testing.T) {
	provider := llmtest.NewFakeProvider()
	provider.AddResponse(classifyFragment, "not json")
	provider.AddResponse(planFragment, "1. Plan")
	provider.AddResponse(generateFragment, "answer")

	sessions := session.NewService(10)
	pipeline := newTestPipeline(provider, storetest.NewMemoryStore(), sessions)

	_, err := pipeline.Run(context.Background(), "broken", "user")
	require.NoError(t, err)
	assert.Empty(t, sessions.History("user", 10))
}

func TestPipelineEmptyQuery(t *testing.T) {
	pipeline := newTestPipeline(llmtest.NewFakeProvider(), storetest.NewMemoryStore(), nil)
	_, err := pipeline.Run(context.Background(), "", "user")
	assert.Error(t, err)
}

func TestPipelineCancelledContext(t *testing.T) {
	pipeline := newTestPipeline(llmtest.NewFakeProvider(), storetest.NewMemoryStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, "anything", "user")
	assert.Error(t, err)
}
