// Package anthropic implements the Claude chat completion provider against
// the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/transport"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
)

const (
	// DefaultModel is the default Claude model
	DefaultModel = "claude-3-5-sonnet-20241022"

	// BaseURL is the Anthropic API endpoint
	BaseURL = "https://api.anthropic.com/v1"

	// APIVersion is the required Anthropic API version header
	APIVersion = "2023-06-01"

	// defaultMaxTokens applies when a request leaves MaxTokens unset; the
	// Messages API rejects requests without it
	defaultMaxTokens = 1024

	maxRetries = 3
)

// Config holds Anthropic provider configuration
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	RetryBackoff time.Duration
}

// Provider implements shared.Provider for Anthropic
type Provider struct {
	config     Config
	httpClient *http.Client
	limiter    *transport.Limiter
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg Config, limiter *transport.Limiter) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Second
	}

	return &Provider{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

// Name returns the provider name
func (p *Provider) Name() string { return "anthropic" }

// messagesRequest represents a request to the Anthropic Messages API
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse represents the response from the Messages API
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Complete performs a completion request. System messages are lifted into
// the Messages API's top-level system field. The API has no JSON output
// mode, so JSONMode requests rely on the prompt contract alone.
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}
	if p.config.APIKey == "" {
		return nil, &shared.ProviderError{
			Provider: p.Name(),
			Code:     shared.ErrCodeAuth,
			Message:  "API key not configured",
		}
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
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	var system strings.Builder
	messages := make([]message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == shared.RoleSystem {
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)
			continue
		}
		messages = append(messages, message{Role: string(msg.Role), Content: msg.Content})
	}

	anthropicReq := messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      system.String(),
		Messages:    messages,
	}

	var resp *messagesResponse
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * p.config.RetryBackoff
			logger.Warnw("retrying Anthropic request",
				"attempt", attempt+1,
				"delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &shared.ProviderError{
					Provider: p.Name(),
					Code:     shared.ErrCodeTimeout,
					Message:  ctx.Err().Error(),
				}
			}
		}

		resp, err = p.createMessages(ctx, anthropicReq)
		if err == nil {
			break
		}
		if !isRetryable(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &shared.CompletionResponse{
		Content:      strings.TrimSpace(content.String()),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		Usage: shared.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// createMessages sends a request to the Anthropic Messages API
func (p *Provider) createMessages(ctx context.Context, req messagesRequest) (*messagesResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.config.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &shared.ProviderError{
			Provider: p.Name(),
			Code:     shared.ErrCodeUnavailable,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.ProviderError{
			Provider:   p.Name(),
			Code:       shared.CodeForStatus(resp.StatusCode),
			Message:    strings.TrimSpace(string(respBody)),
			StatusCode: resp.StatusCode,
		}
	}

	var messagesResp messagesResponse
	if err := json.Unmarshal(respBody, &messagesResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &messagesResp, nil
}

// isRetryable reports whether an error is worth retrying. 529 is the
// Anthropic overloaded status and maps to a retryable server code.
func isRetryable(err error) bool {
	if provErr, ok := err.(*shared.ProviderError); ok {
		return provErr.Retryable()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") || strings.Contains(msg, "529")
}
