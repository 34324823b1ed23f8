// Package config loads swiftcourse settings from a YAML file, SWIFTCOURSE_*
// environment variables and built-in defaults, and reloads them when the
// file changes.
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/swiftcourse/swiftcourse/internal/llm"
)

// Storage backends accepted in StorageConfig.Backend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
}

// LogConfig selects the zap preset: "development" or "production".
type LogConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// ServerConfig configures `swiftcourse serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig selects where progress is persisted.
type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// LLMConfig configures the chat assistant's provider. APIKey and BaseURL
// may reference environment variables as ${NAME}.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retry       RetryConfig   `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig mirrors llm.RetryConfig. max_attempts 1 disables retries.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	l := llm.DefaultConfig()
	return &Config{
		Log: LogConfig{Mode: "production"},
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "swiftcourse:",
			},
		},
		LLM: LLMConfig{
			Provider:  llm.ProviderGemini,
			Model:     llm.DefaultGeminiModel,
			APIKey:    "${GEMINI_API_KEY}",
			MaxTokens: l.MaxTokens,
			Timeout:   l.Timeout,
			Retry: RetryConfig{
				MaxAttempts: l.Retry.MaxAttempts,
				InitialWait: l.Retry.InitialWait,
				MaxWait:     l.Retry.MaxWait,
				Multiplier:  l.Retry.Multiplier,
			},
		},
	}
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// standardKeyEnv is consulted when the configured key resolves empty.
var standardKeyEnv = map[string]string{
	llm.ProviderGemini:     "GEMINI_API_KEY",
	llm.ProviderAnthropic:  "ANTHROPIC_API_KEY",
	llm.ProviderOpenAI:     "OPENAI_API_KEY",
	llm.ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// ToLLMConfig converts the llm section into an llm.Config, resolving
// ${ENV_VAR} references. An empty key falls back to the provider's
// standard environment variable.
func (c *Config) ToLLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.LLM.Provider
	if c.LLM.MaxTokens > 0 {
		out.MaxTokens = c.LLM.MaxTokens
	}
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.Retry.MaxAttempts > 0 {
		out.Retry = llm.RetryConfig{
			MaxAttempts: c.LLM.Retry.MaxAttempts,
			InitialWait: c.LLM.Retry.InitialWait,
			MaxWait:     c.LLM.Retry.MaxWait,
			Multiplier:  c.LLM.Retry.Multiplier,
		}
	}

	key := ResolveEnvVars(c.LLM.APIKey)
	if key == "" {
		key = os.Getenv(standardKeyEnv[c.LLM.Provider])
	}
	baseURL := ResolveEnvVars(c.LLM.BaseURL)
	model := c.LLM.Model

	switch c.LLM.Provider {
	case llm.ProviderGemini:
		out.Gemini = llm.GeminiConfig{APIKey: key, Model: orDefault(model, out.Gemini.Model), BaseURL: baseURL}
	case llm.ProviderAnthropic:
		out.Anthropic = llm.AnthropicConfig{APIKey: key, Model: orDefault(model, out.Anthropic.Model)}
	case llm.ProviderOpenAI:
		out.OpenAI = llm.OpenAIConfig{APIKey: key, Model: orDefault(model, out.OpenAI.Model), BaseURL: baseURL}
	case llm.ProviderOpenRouter:
		out.OpenRouter = llm.OpenRouterConfig{APIKey: key, Model: orDefault(model, out.OpenRouter.Model), BaseURL: baseURL}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
