package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Provider sends a prompt to a language model and returns its raw text reply
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config holds the settings needed to construct a provider
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-2.0-flash"
	}
}

// NewProvider creates the provider named in cfg
func NewProvider(ctx context.Context, cfg *Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key not found", cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiProvider(ctx, cfg.APIKey, model, cfg.Timeout)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
