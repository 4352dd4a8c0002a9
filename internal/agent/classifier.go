package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
)

// Classifier routes a query to its primary domain, plus secondary domains
// for cross-domain questions
type Classifier struct {
	provider shared.Provider
}

// NewClassifier creates the classification stage
func NewClassifier(provider shared.Provider) *Classifier {
	return &Classifier{provider: provider}
}

// Run classifies the state query. On failure the error is recorded and the
// primary domain stays empty; retrieval then searches unfiltered.
func (c *Classifier) Run(ctx context.Context, state *State) {
	resp, err := c.provider.Complete(ctx, &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleSystem, Content: classifierSystemPrompt()},
			{Role: shared.RoleUser, Content: classifierUserPrompt(state.Query)},
		},
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		state.setErr(fmt.Sprintf("classification failed: %v", err))
		logger.Errorw("classification failed", "error", err)
		return
	}

	var result Classification
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Content)), &result); err != nil {
		state.setErr(fmt.Sprintf("classification failed: invalid JSON: %v", err))
		logger.Errorw("classification returned invalid JSON",
			"error", err,
			"content", resp.Content,
		)
		return
	}

	state.PrimaryDomain = domain.Normalize(result.PrimaryDomain)
	state.SecondaryDomains = normalizeDomains(result.SecondaryDomains)
	state.CrossDomain = result.CrossDomain
	state.Confidence = result.Confidence

	logger.Infow("query classified",
		"primary_domain", state.PrimaryDomain,
		"cross_domain", state.CrossDomain,
		"confidence", state.Confidence,
	)
}

func normalizeDomains(domains []string) []string {
	var out []string
	for _, d := range domains {
		if normalized := domain.Normalize(d); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// stripJSONFences removes markdown code fences some models wrap around
// JSON output even in JSON mode
func stripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
