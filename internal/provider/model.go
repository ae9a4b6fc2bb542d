package provider

// ModelType represents the type of a model
type ModelType int

const (
	Streaming ModelType = iota
	LLM
)

func (t ModelType) String() string {
	switch t {
	case Streaming:
		return "streaming"
	case LLM:
		return "llm"
	default:
		return "unknown"
	}
}

// Model represents a model with full metadata
type Model struct {
	ID          string          // unique identifier (e.g., "universal-streaming-english")
	Name        string          // display name
	Description string          // short description
	Type        ModelType       // streaming transcription or LLM
	Endpoint    *EndpointConfig // where requests for this model go
}

// EndpointConfig holds HTTP/WebSocket endpoint configuration
type EndpointConfig struct {
	BaseURL string // e.g., "https://llm-gateway.assemblyai.com" or "wss://streaming.assemblyai.com"
	Path    string // e.g., "/v1/chat/completions"
}

// URL joins BaseURL and Path.
func (e *EndpointConfig) URL() string {
	if e == nil {
		return ""
	}
	return e.BaseURL + e.Path
}

// ModelsOfType filters a provider's models by type
func ModelsOfType(p Provider, t ModelType) []Model {
	var out []Model
	for _, m := range p.Models() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindModel returns the model with the given ID, or nil.
func FindModel(p Provider, id string) *Model {
	for _, m := range p.Models() {
		if m.ID == id {
			return &m
		}
	}
	return nil
}
