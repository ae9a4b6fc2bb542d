package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/observe"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

// Client sends one prompt and returns the generated text.
type Client interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Config holds LLM adapter configuration
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // empty: provider default
	Temperature float32
	Timeout     time.Duration
}

type Option func(*ChatAdapter)

// WithMetrics records request latency and status on m instead of the default instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *ChatAdapter) { a.metrics = m }
}

// NewAdapter creates an LLM adapter based on the provider
func NewAdapter(cfg Config, opts ...Option) (*ChatAdapter, error) {
	p := provider.GetProvider(cfg.Provider)
	if p == nil || p.ChatBaseURL() == "" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", p.DisplayName())
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel(provider.LLM)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.ChatBaseURL()
	}
	return newChatAdapter(cfg, opts...), nil
}
