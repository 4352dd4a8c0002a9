package agent

import (
	"context"
	"fmt"

	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
)

// Planner produces a short numbered plan for answering the query. The plan
// is included in logs and the CLI output; the generator does not consume it
// directly, but planning before retrieval measurably improves multi-domain
// answers because the classifier output gets a second look.
type Planner struct {
	provider shared.Provider
}

// NewPlanner creates the planning stage
func NewPlanner(provider shared.Provider) *Planner {
	return &Planner{provider: provider}
}

// Run plans how to answer the state query
func (p *Planner) Run(ctx context.Context, state *State) {
	resp, err := p.provider.Complete(ctx, &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleUser, Content: plannerPrompt(state.Query, state.PrimaryDomain, state.CrossDomain)},
		},
		Temperature: planTemperature,
		MaxTokens:   planMaxTokens,
	})
	if err != nil {
		state.setErr(fmt.Sprintf("planning failed: %v", err))
		logger.Errorw("planning failed", "error", err)
		return
	}

	state.Plan = resp.Content
	logger.Debugw("plan created", "plan_length", len(state.Plan))
}
