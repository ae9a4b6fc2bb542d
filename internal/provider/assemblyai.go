package provider

// AssemblyAIProvider implements Provider for AssemblyAI streaming and its LLM gateway
type AssemblyAIProvider struct{}

const (
	assemblyAIStreamingHost = "wss://streaming.assemblyai.com"
	assemblyAIGatewayHost   = "https://llm-gateway.assemblyai.com"
)

func (p *AssemblyAIProvider) Name() string {
	return ProviderAssemblyAI
}

func (p *AssemblyAIProvider) DisplayName() string {
	return "AssemblyAI"
}

func (p *AssemblyAIProvider) RequiresAPIKey() bool {
	return true
}

// AssemblyAI keys are 32 hex characters with no prefix.
func (p *AssemblyAIProvider) ValidateAPIKey(key string) bool {
	return len(key) >= 32
}

func (p *AssemblyAIProvider) ChatBaseURL() string {
	return assemblyAIGatewayHost + "/v1"
}

func (p *AssemblyAIProvider) Models() []Model {
	streaming := &EndpointConfig{BaseURL: assemblyAIStreamingHost, Path: "/v3/ws"}
	gateway := &EndpointConfig{BaseURL: assemblyAIGatewayHost, Path: "/v1/chat/completions"}

	return []Model{
		{
			ID:          "universal-streaming-english",
			Name:        "Universal Streaming (English)",
			Description: "Low latency English streaming with turn detection",
			Type:        Streaming,
			Endpoint:    streaming,
		},
		{
			ID:          "universal-streaming-multilingual",
			Name:        "Universal Streaming (Multilingual)",
			Description: "Streaming with language detection",
			Type:        Streaming,
			Endpoint:    streaming,
		},
		{
			ID:          "claude-sonnet-4-5-20250929",
			Name:        "Claude Sonnet 4.5",
			Description: "Most accurate keyterm extraction",
			Type:        LLM,
			Endpoint:    gateway,
		},
		{
			ID:          "claude-3-5-haiku-20241022",
			Name:        "Claude 3.5 Haiku",
			Description: "Faster, cheaper refreshes",
			Type:        LLM,
			Endpoint:    gateway,
		},
	}
}

func (p *AssemblyAIProvider) DefaultModel(t ModelType) string {
	switch t {
	case Streaming:
		return "universal-streaming-english"
	case LLM:
		return "claude-sonnet-4-5-20250929"
	default:
		return ""
	}
}
