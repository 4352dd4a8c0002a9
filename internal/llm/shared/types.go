// Package shared defines the provider-neutral completion types. Providers
// translate these to and from their wire formats so the agent pipeline never
// depends on a specific vendor SDK.
package shared

import (
	"context"
	"fmt"
)

// Role identifies the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral chat completion request
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`

	// JSONMode asks the model to emit a single valid JSON object
	JSONMode bool `json:"json_mode,omitempty"`
}

// Usage reports token consumption for a completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is a provider-neutral chat completion response
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Provider is implemented by each LLM backend
type Provider interface {
	// Name returns the provider name used for registry lookup
	Name() string

	// Complete performs a chat completion request
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ErrorCode classifies provider failures
type ErrorCode string

const (
	ErrCodeAuth           ErrorCode = "auth"
	ErrCodeRateLimited    ErrorCode = "rate_limited"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeServer         ErrorCode = "server"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeUnavailable    ErrorCode = "unavailable"
)

// ProviderError is a normalized provider failure
type ProviderError struct {
	Provider   string    `json:"provider"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

// Retryable reports whether a retry could plausibly succeed
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeServer, ErrCodeTimeout, ErrCodeUnavailable:
		return true
	}
	return false
}

// CodeForStatus maps an HTTP status to an error code
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == 401 || status == 403:
		return ErrCodeAuth
	case status == 429:
		return ErrCodeRateLimited
	case status == 408:
		return ErrCodeTimeout
	case status >= 500:
		return ErrCodeServer
	default:
		return ErrCodeInvalidRequest
	}
}

// ValidateCompletionRequest checks a request before it reaches a provider
func ValidateCompletionRequest(req *CompletionRequest) error {
	if req == nil {
		return fmt.Errorf("completion request is nil")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("completion request has no messages")
	}
	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
	}
	return nil
}
