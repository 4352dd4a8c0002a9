package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.True(t, cfg.Twilio.VerifySignature)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, 1536, cfg.Embeddings.Dimension)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "sap_cx_docs", cfg.Storage.Collection)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 3, cfg.RAG.TopKPerDomain)
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Twilio.AuthToken = "test-token"
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigRequiresAuthToken(t *testing.T) {
	// verify_signature defaults to on, so startup without a token must fail
	// at load time rather than 403 every webhook request
	err := DefaultConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_token")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown llm provider",
			mutate:  func(c *Config) { c.LLM.Provider = "cohere" },
			wantErr: "Provider",
		},
		{
			name:    "overlap not smaller than chunk size",
			mutate:  func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize },
			wantErr: "chunk_overlap",
		},
		{
			name: "milvus backend without address",
			mutate: func(c *Config) {
				c.Storage.Backend = "milvus"
				c.Storage.Milvus.Address = ""
			},
			wantErr: "milvus",
		},
		{
			name: "embeddings model required unless hash",
			mutate: func(c *Config) {
				c.Embeddings.Provider = "openai"
				c.Embeddings.Model = ""
			},
			wantErr: "model",
		},
		{
			name: "hash embeddings need no model",
			mutate: func(c *Config) {
				c.Embeddings.Provider = "hash"
				c.Embeddings.Model = ""
				c.Embeddings.Dimension = 384
			},
		},
		{
			name: "signature verification without auth token",
			mutate: func(c *Config) {
				c.Twilio.VerifySignature = true
				c.Twilio.AuthToken = ""
			},
			wantErr: "auth_token",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "Port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Twilio.AuthToken = "test-token"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv("VERIFY_TWILIO_SIGNATURE", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"server": {"port": 8080},
		"twilio": {"verify_signature": false},
		"llm": {"provider": "groq", "model": "llama-3.1-8b-instant"},
		"rag": {"chunk_size": 500, "chunk_overlap": 50}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	// untouched sections keep defaults
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.RAG.TopKPerDomain)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "tok-123")
	t.Setenv("VERIFY_TWILIO_SIGNATURE", "false")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("PORT", "9100")
	t.Setenv("DEFAULT_MODEL", "llama-3.1-70b")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Twilio.AuthToken)
	assert.False(t, cfg.Twilio.VerifySignature)
	assert.Equal(t, "gsk-test", cfg.LLM.GroqAPIKey)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "llama-3.1-70b", cfg.LLM.Model)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Twilio.AuthToken = "super-secret-token"
	cfg.LLM.GroqAPIKey = "gsk-abcdef"

	s := cfg.String()
	assert.NotContains(t, s, "super-secret-token")
	assert.NotContains(t, s, "gsk-abcdef")
	assert.Contains(t, s, strings.Repeat("*", len("super-secret-token")))
}

func TestSaveToFileRoundTrip(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("VERIFY_TWILIO_SIGNATURE", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.Twilio.VerifySignature = false
	cfg.Server.Port = 7777
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, loaded.Server.Port)
}

func TestAPIKeySelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.GroqAPIKey = "g"
	cfg.LLM.OpenAIAPIKey = "o"
	cfg.LLM.AnthropicAPIKey = "a"

	cfg.LLM.Provider = "groq"
	assert.Equal(t, "g", cfg.LLM.APIKey())
	cfg.LLM.Provider = "openai"
	assert.Equal(t, "o", cfg.LLM.APIKey())
	cfg.LLM.Provider = "anthropic"
	assert.Equal(t, "a", cfg.LLM.APIKey())
}
