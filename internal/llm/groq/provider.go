// Package groq implements the Groq chat completion provider. Groq exposes
// an OpenAI-compatible API, so the OpenAI client is pointed at the Groq
// endpoint.
package groq

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/transport"
)

// BaseURL is the Groq OpenAI-compatible API endpoint
const BaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is used when a request does not name a model
const DefaultModel = "llama-3.3-70b-versatile"

// Config holds Groq provider configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Provider implements shared.Provider for Groq
type Provider struct {
	client  *openai.Client
	config  Config
	limiter *transport.Limiter
}

// NewProvider creates a new Groq provider
func NewProvider(cfg Config, limiter *transport.Limiter) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client:  openai.NewClientWithConfig(openaiConfig),
		config:  cfg,
		limiter: limiter,
	}
}

// Name returns the provider name
func (p *Provider) Name() string { return "groq" }

// Complete performs a completion request
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &shared.ProviderError{
				Provider: p.Name(),
				Code:     shared.ErrCodeTimeout,
				Message:  err.Error(),
			}
		}
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, normalizeError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, &shared.ProviderError{
			Provider: p.Name(),
			Code:     shared.ErrCodeServer,
			Message:  "response contained no choices",
		}
	}

	return &shared.CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: shared.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(messages []shared.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return out
}

func normalizeError(provider string, err error) error {
	if apiErr, ok := err.(*openai.APIError); ok {
		return &shared.ProviderError{
			Provider:   provider,
			Code:       shared.CodeForStatus(apiErr.HTTPStatusCode),
			Message:    apiErr.Message,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}
	if reqErr, ok := err.(*openai.RequestError); ok {
		return &shared.ProviderError{
			Provider:   provider,
			Code:       shared.CodeForStatus(reqErr.HTTPStatusCode),
			Message:    reqErr.Error(),
			StatusCode: reqErr.HTTPStatusCode,
		}
	}
	if err == context.DeadlineExceeded {
		return &shared.ProviderError{
			Provider: provider,
			Code:     shared.ErrCodeTimeout,
			Message:  err.Error(),
		}
	}
	return &shared.ProviderError{
		Provider: provider,
		Code:     shared.ErrCodeUnavailable,
		Message:  err.Error(),
	}
}
