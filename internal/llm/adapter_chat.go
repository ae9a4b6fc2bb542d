package llm

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/observe"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
	"github.com/sashabaranov/go-openai"
)

// ChatAdapter implements Client against any OpenAI-compatible chat
// completions endpoint.
type ChatAdapter struct {
	client  *openai.Client
	config  Config
	metrics *observe.Metrics
}

var _ Client = (*ChatAdapter)(nil)

func newChatAdapter(cfg Config, opts ...Option) *ChatAdapter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	var transport http.RoundTripper = http.DefaultTransport
	// The AssemblyAI gateway takes the bare key, not a bearer token.
	if cfg.Provider == provider.ProviderAssemblyAI {
		transport = &rawKeyTransport{key: cfg.APIKey, base: transport}
	}
	clientConfig.HTTPClient = &http.Client{Transport: transport, Timeout: cfg.Timeout}

	a := &ChatAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

func (a *ChatAdapter) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	temperature := a.config.Temperature
	if temperature == 0 {
		// zero is dropped by omitempty; the smallest positive value is sent instead
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model: a.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		a.metrics.RecordGeneration(ctx, a.config.Provider, "error", duration)
		log.Printf("llm: %s request failed after %v: %v", a.config.Provider, duration, err)
		return "", fmt.Errorf("%s chat completion: %w", a.config.Provider, err)
	}

	if len(resp.Choices) == 0 {
		a.metrics.RecordGeneration(ctx, a.config.Provider, "empty", duration)
		return "", fmt.Errorf("%s chat completion: no response choices", a.config.Provider)
	}

	a.metrics.RecordGeneration(ctx, a.config.Provider, "ok", duration)
	result := resp.Choices[0].Message.Content
	log.Printf("llm: %s/%s responded in %v (%d chars)", a.config.Provider, a.config.Model, duration, len(result))
	return result, nil
}

type rawKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *rawKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", t.key)
	return t.base.RoundTrip(r)
}
