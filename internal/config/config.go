package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config contains all configuration for the assistant
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Twilio     TwilioConfig     `mapstructure:"twilio" json:"twilio"`
	LLM        LLMConfig        `mapstructure:"llm" json:"llm" validate:"required"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings" json:"embeddings" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage" validate:"required"`
	RAG        RAGConfig        `mapstructure:"rag" json:"rag" validate:"required"`
	Session    SessionConfig    `mapstructure:"session" json:"session"`
	Logging    LoggingConfig    `mapstructure:"logging" json:"logging"`
}

// ServerConfig configuration for the webhook HTTP server
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host" validate:"required"`
	Port int    `mapstructure:"port" json:"port" validate:"min=1,max=65535"`

	// PublicURL is the externally visible base URL (e.g. the ngrok or load
	// balancer address). Twilio signs requests against this URL, not the
	// address the listener binds to.
	PublicURL string `mapstructure:"public_url" json:"public_url,omitempty" validate:"omitempty,url"`

	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" json:"read_timeout_seconds" validate:"min=1,max=300"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" json:"write_timeout_seconds" validate:"min=1,max=300"`

	// AgentTimeoutSeconds bounds a single pipeline run. Twilio abandons
	// webhook requests after 15 seconds, so answers that take longer are
	// wasted work.
	AgentTimeoutSeconds int `mapstructure:"agent_timeout_seconds" json:"agent_timeout_seconds" validate:"min=1,max=300"`
}

// TwilioConfig configuration for Twilio webhook security
type TwilioConfig struct {
	AuthToken       string `mapstructure:"auth_token" json:"auth_token,omitempty"`
	VerifySignature bool   `mapstructure:"verify_signature" json:"verify_signature"`
}

// LLMConfig configuration for chat completion providers
type LLMConfig struct {
	Provider       string `mapstructure:"provider" json:"provider" validate:"required,oneof=groq openai anthropic"`
	Model          string `mapstructure:"model" json:"model" validate:"required"`
	AnthropicModel string `mapstructure:"anthropic_model" json:"anthropic_model"`

	GroqAPIKey      string `mapstructure:"groq_api_key" json:"groq_api_key,omitempty"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key" json:"openai_api_key,omitempty"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key" json:"anthropic_api_key,omitempty"`

	TimeoutSeconds int     `mapstructure:"timeout_seconds" json:"timeout_seconds" validate:"min=1,max=3600"`
	RateRPS        float64 `mapstructure:"rate_rps" json:"rate_rps" validate:"min=0"`
	RateBurst      int     `mapstructure:"rate_burst" json:"rate_burst" validate:"min=0"`
}

// EmbeddingsConfig configuration for embedding models
type EmbeddingsConfig struct {
	Provider  string `mapstructure:"provider" json:"provider" validate:"required,oneof=openai ollama hash"`
	Model     string `mapstructure:"model" json:"model"`
	Dimension int    `mapstructure:"dimension" json:"dimension" validate:"min=1,max=4096"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size" validate:"min=1,max=2048"`
	OllamaURL string `mapstructure:"ollama_url" json:"ollama_url" validate:"omitempty,url"`
}

// StorageConfig configuration for the vector store
type StorageConfig struct {
	Backend    string       `mapstructure:"backend" json:"backend" validate:"required,oneof=sqlite milvus"`
	Collection string       `mapstructure:"collection" json:"collection" validate:"required"`
	SQLite     SQLiteConfig `mapstructure:"sqlite" json:"sqlite"`
	Milvus     MilvusConfig `mapstructure:"milvus" json:"milvus"`
}

// SQLiteConfig configuration for the embedded sqlite-vec backend
type SQLiteConfig struct {
	Path      string `mapstructure:"path" json:"path" validate:"required"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size" validate:"min=1,max=5000"`
}

// MilvusConfig configuration for the Milvus backend
type MilvusConfig struct {
	Address  string `mapstructure:"address" json:"address"`
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"password,omitempty"`
}

// RAGConfig configuration for document loading, chunking, and retrieval
type RAGConfig struct {
	DocsDir        string `mapstructure:"docs_dir" json:"docs_dir" validate:"required"`
	ChunkSize      int    `mapstructure:"chunk_size" json:"chunk_size" validate:"min=100,max=50000"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap" json:"chunk_overlap" validate:"min=0"`
	TopK           int    `mapstructure:"top_k" json:"top_k" validate:"min=1,max=50"`
	TopKPerDomain  int    `mapstructure:"top_k_per_domain" json:"top_k_per_domain" validate:"min=1,max=50"`
	MaxConcurrency int    `mapstructure:"max_concurrency" json:"max_concurrency" validate:"min=1,max=100"`
}

// SessionConfig configuration for per-user conversation history
type SessionConfig struct {
	MaxTurns int `mapstructure:"max_turns" json:"max_turns" validate:"min=1,max=100"`
}

// LoggingConfig configuration for structured logging
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json" json:"json"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                5000,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
			AgentTimeoutSeconds: 15,
		},
		Twilio: TwilioConfig{
			VerifySignature: true,
		},
		LLM: LLMConfig{
			Provider:       "groq",
			Model:          "llama-3.3-70b-versatile",
			AnthropicModel: "claude-3-5-sonnet-20241022",
			TimeoutSeconds: 60,
			RateRPS:        2,
			RateBurst:      4,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 1000,
			OllamaURL: "http://localhost:11434",
		},
		Storage: StorageConfig{
			Backend:    "sqlite",
			Collection: "sap_cx_docs",
			SQLite: SQLiteConfig{
				Path:      "vector_store/sap_cx.db",
				BatchSize: 1000,
			},
			Milvus: MilvusConfig{
				Address:  "localhost:19530",
				Username: "root",
				Password: "Milvus",
			},
		},
		RAG: RAGConfig{
			DocsDir:        "docs",
			ChunkSize:      1000,
			ChunkOverlap:   200,
			TopK:           5,
			TopKPerDomain:  3,
			MaxConcurrency: 4,
		},
		Session: SessionConfig{
			MaxTurns: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load returns the configuration from the given file merged over defaults,
// then applies environment overrides. An empty path loads defaults plus
// environment only, which matches deployments configured entirely through
// env vars.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}

		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %v", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return config, nil
}

// LoadConfigFromFile loads configuration from a JSON or YAML file
func LoadConfigFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}
	return Load(path)
}

// applyEnvOverrides applies the environment contract the bot was originally
// deployed with. Env vars win over file values.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Twilio.AuthToken = v
	}
	if v := os.Getenv("VERIFY_TWILIO_SIGNATURE"); v != "" {
		c.Twilio.VerifySignature = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.LLM.GroqAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()

	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}

	if c.Twilio.VerifySignature && c.Twilio.AuthToken == "" {
		return fmt.Errorf("twilio.verify_signature requires twilio.auth_token (set TWILIO_AUTH_TOKEN or disable verification)")
	}

	if c.Storage.Backend == "milvus" && c.Storage.Milvus.Address == "" {
		return fmt.Errorf("milvus backend requires storage.milvus.address")
	}

	if c.Embeddings.Provider != "hash" && c.Embeddings.Model == "" {
		return fmt.Errorf("embeddings provider %q requires a model name", c.Embeddings.Provider)
	}

	return validate.Struct(c)
}

// SaveToFile saves the configuration to a file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

// String returns a string representation of the config (with sensitive data masked)
func (c *Config) String() string {
	configCopy := *c

	configCopy.Twilio.AuthToken = mask(configCopy.Twilio.AuthToken)
	configCopy.LLM.GroqAPIKey = mask(configCopy.LLM.GroqAPIKey)
	configCopy.LLM.OpenAIAPIKey = mask(configCopy.LLM.OpenAIAPIKey)
	configCopy.LLM.AnthropicAPIKey = mask(configCopy.LLM.AnthropicAPIKey)
	configCopy.Storage.Milvus.Password = mask(configCopy.Storage.Milvus.Password)

	data, _ := json.MarshalIndent(configCopy, "", "  ")
	return string(data)
}

func mask(s string) string {
	if s == "" {
		return s
	}
	return strings.Repeat("*", len(s))
}

// Addr returns the listen address for the webhook server
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReadTimeout returns the server read timeout
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// AgentTimeout returns the per-request pipeline deadline
func (s *ServerConfig) AgentTimeout() time.Duration {
	return time.Duration(s.AgentTimeoutSeconds) * time.Second
}

// Timeout returns the LLM request timeout
func (l *LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// APIKey returns the key for the selected provider
func (l *LLMConfig) APIKey() string {
	switch l.Provider {
	case "groq":
		return l.GroqAPIKey
	case "openai":
		return l.OpenAIAPIKey
	case "anthropic":
		return l.AnthropicAPIKey
	}
	return ""
}
