package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/session"
)

// FallbackAnswer is returned when generation itself fails
const FallbackAnswer = "Sorry, I encountered an error generating the answer."

// historyTurns is how many recent exchanges the generator sees
const historyTurns = 2

// Generator produces the final WhatsApp-formatted answer from the
// retrieved documentation
type Generator struct {
	provider shared.Provider
	sessions *session.Service
}

// NewGenerator creates the generation stage. sessions may be nil for
// one-shot CLI use.
func NewGenerator(provider shared.Provider, sessions *session.Service) *Generator {
	return &Generator{provider: provider, sessions: sessions}
}

// Run generates the answer. Failure records the error and sets a canned
// apology so the webhook always has something to send.
func (g *Generator) Run(ctx context.Context, state *State) {
	docContext := strings.Join(state.RetrievedDocs, "\n\n")

	var history []session.Exchange
	if g.sessions != nil {
		history = g.sessions.History(state.UserID, historyTurns)
	}

	resp, err := g.provider.Complete(ctx, &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleUser, Content: generatorPrompt(state.Query, docContext, history)},
		},
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		state.setErr(fmt.Sprintf("generation failed: %v", err))
		state.Answer = FallbackAnswer
		logger.Errorw("generation failed", "error", err)
		return
	}

	state.Answer = strings.TrimSpace(resp.Content)
	logger.Infow("answer generated", "answer_length", len(state.Answer))
}
