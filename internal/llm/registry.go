// Package llm wires chat completion providers behind a registry so the rest
// of the system selects one by name.
package llm

import (
	"sync"

	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/anthropic"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/groq"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/openai"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/shared"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm/transport"
)

// Registry manages provider instances
type Registry struct {
	providers map[string]shared.Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]shared.Provider),
	}
}

// Register registers a provider instance under its name
func (r *Registry) Register(provider shared.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get returns a registered provider by name
func (r *Registry) Get(name string) (shared.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, errors.Newf("provider not found: %s", name)
	}
	return provider, nil
}

// List returns the names of all registered providers
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// NewFromConfig builds a registry holding every provider whose API key is
// configured and returns it together with the default provider named by
// cfg.LLM.Provider. All providers share one rate limiter manager so the
// per-provider limits hold across the pipeline and the CLI.
func NewFromConfig(cfg *config.Config) (*Registry, shared.Provider, error) {
	registry := NewRegistry()
	limits := transport.NewRateLimiter()

	rps := cfg.LLM.RateRPS
	burst := cfg.LLM.RateBurst

	if cfg.LLM.GroqAPIKey != "" {
		registry.Register(groq.NewProvider(groq.Config{
			APIKey:  cfg.LLM.GroqAPIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout(),
		}, limits.GetLimiter("groq", rps, burst)))
	}

	if cfg.LLM.OpenAIAPIKey != "" {
		registry.Register(openai.NewProvider(openai.Config{
			APIKey:  cfg.LLM.OpenAIAPIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout(),
		}, limits.GetLimiter("openai", rps, burst)))
	}

	if cfg.LLM.AnthropicAPIKey != "" {
		registry.Register(anthropic.NewProvider(anthropic.Config{
			APIKey:  cfg.LLM.AnthropicAPIKey,
			Model:   cfg.LLM.AnthropicModel,
			Timeout: cfg.LLM.Timeout(),
		}, limits.GetLimiter("anthropic", rps, burst)))
	}

	def, err := registry.Get(cfg.LLM.Provider)
	if err != nil {
		return nil, nil, errors.Wrapf(err,
			"default provider %q is not configured (missing API key?)", cfg.LLM.Provider)
	}

	return registry, def, nil
}
