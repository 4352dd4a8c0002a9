// Package llmtest provides a scripted in-memory provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
)

// rule pairs a prompt fragment with either a response or an error
type rule struct {
	fragment string
	content  string
	err      error
}

// FakeProvider implements shared.Provider for testing. Responses are matched
// by substring against the last user message, in registration order, so one
// fake can serve the classify, plan, and generate stages of a single run.
type FakeProvider struct {
	mu       sync.Mutex
	rules    []rule
	requests []*shared.CompletionRequest
}

// NewFakeProvider creates a new fake provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// AddResponse returns content for requests whose user message contains fragment
func (fp *FakeProvider) AddResponse(fragment, content string) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.rules = append(fp.rules, rule{fragment: fragment, content: content})
}

// AddError returns err for requests whose user message contains fragment
func (fp *FakeProvider) AddError(fragment string, err error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.rules = append(fp.rules, rule{fragment: fragment, err: err})
}

// Requests returns every request seen so far
func (fp *FakeProvider) Requests() []*shared.CompletionRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]*shared.CompletionRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// CallCount returns the number of completion calls made
func (fp *FakeProvider) CallCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.requests)
}

// Name returns the provider name
func (fp *FakeProvider) Name() string { return "fake" }

// Complete performs a scripted completion request
func (fp *FakeProvider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fp.mu.Lock()
	fp.requests = append(fp.requests, req)

	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == shared.RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}

	var matched *rule
	for i := range fp.rules {
		if strings.Contains(prompt, fp.rules[i].fragment) {
			matched = &fp.rules[i]
			break
		}
	}
	fp.mu.Unlock()

	if matched != nil {
		if matched.err != nil {
			return nil, matched.err
		}
		return &shared.CompletionResponse{
			Content:      matched.content,
			Model:        "fake-model",
			FinishReason: "stop",
			Usage:        shared.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		}, nil
	}

	return &shared.CompletionResponse{
		Content:      fmt.Sprintf("Mock response for: %s", prompt),
		Model:        "fake-model",
		FinishReason: "stop",
		Usage:        shared.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}
