package provider

import "strings"

// GroqProvider implements Provider for Groq's OpenAI-compatible API
type GroqProvider struct{}

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) DisplayName() string {
	return "Groq"
}

func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) ChatBaseURL() string {
	return "https://api.groq.com/openai/v1"
}

func (p *GroqProvider) Models() []Model {
	endpoint := &EndpointConfig{BaseURL: "https://api.groq.com", Path: "/openai/v1/chat/completions"}
	return []Model{
		{
			ID:          "llama-3.3-70b-versatile",
			Name:        "Llama 3.3 70B",
			Description: "Versatile, good JSON adherence",
			Type:        LLM,
			Endpoint:    endpoint,
		},
		{
			ID:          "llama-3.1-8b-instant",
			Name:        "Llama 3.1 8B Instant",
			Description: "Lowest latency",
			Type:        LLM,
			Endpoint:    endpoint,
		},
	}
}

func (p *GroqProvider) DefaultModel(t ModelType) string {
	if t == LLM {
		return "llama-3.3-70b-versatile"
	}
	return ""
}
