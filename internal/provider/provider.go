package provider

import "sort"

// Provider describes a hosted service that serves streaming transcription,
// chat-completion generation, or both.
type Provider interface {
	Name() string
	DisplayName() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	Models() []Model
	DefaultModel(t ModelType) string
	// ChatBaseURL is the OpenAI-compatible base URL for chat completions,
	// empty when the provider has no LLM models.
	ChatBaseURL() string
}

var registry = make(map[string]Provider)

func init() {
	Register(&AssemblyAIProvider{})
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProvidersWithLLM returns providers that can generate keyterms, sorted
func ListProvidersWithLLM() []string {
	var names []string
	for _, name := range ListProviders() {
		if len(ModelsOfType(registry[name], LLM)) > 0 {
			names = append(names, name)
		}
	}
	return names
}
