package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/livekeyterms/internal/config"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

// getProviderDisplayName returns the display name for a provider
func getProviderDisplayName(providerName string) string {
	if p := provider.GetProvider(providerName); p != nil {
		return p.DisplayName()
	}
	return providerName
}

// maskAPIKey returns a masked version of an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// getConfiguredProviders returns the sorted providers with API keys in the config
func getConfiguredProviders(cfg *config.Config) []string {
	var providers []string
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

func setAPIKey(cfg *config.Config, providerName, key string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	cfg.Providers[providerName] = config.ProviderConfig{APIKey: key}
}

// editProviders handles the providers section edit with submenu
func editProviders(cfg *config.Config) error {
	// default to "Done" once a key has been entered
	defaultToExit := false

	for {
		var options []huh.Option[string]
		for _, name := range provider.ListProviders() {
			options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
		}
		options = append(options, huh.NewOption("Done", "back"))

		selected := ""
		if defaultToExit {
			selected = "back"
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Provider Settings").
					Description("Select a provider to configure API key").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}

		if selected == "back" {
			return nil
		}

		apiKey, err := configureSingleProvider(cfg, selected)
		if err != nil {
			continue
		}

		if apiKey != "" {
			setAPIKey(cfg, selected, apiKey)
			defaultToExit = true
		}
	}
}

// formatProviderOption formats a provider menu option with status
func formatProviderOption(cfg *config.Config, name string) string {
	status := "(not configured)"
	if pc, exists := cfg.Providers[name]; exists && pc.APIKey != "" {
		status = "(configured)"
	}

	switch name {
	case provider.ProviderAssemblyAI:
		return fmt.Sprintf("AssemblyAI - Streaming + LLM Gateway %s", status)
	case provider.ProviderOpenAI:
		return fmt.Sprintf("OpenAI - GPT keyterms %s", status)
	case provider.ProviderGroq:
		return fmt.Sprintf("Groq - Llama keyterms %s", status)
	default:
		return fmt.Sprintf("%s %s", getProviderDisplayName(name), status)
	}
}

// configureSingleProvider handles the complete flow for configuring a single provider's API key.
// Shows confirm dialog if key exists, then prompts for new key if needed.
// Returns the new API key (empty if user kept current) and any error.
func configureSingleProvider(cfg *config.Config, providerName string) (string, error) {
	var existingKey string
	if pc, exists := cfg.Providers[providerName]; exists && pc.APIKey != "" {
		existingKey = pc.APIKey
	}

	if existingKey != "" {
		var update bool
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s API Key", getProviderDisplayName(providerName))).
					Description(fmt.Sprintf("Current: %s", maskAPIKey(existingKey))).
					Affirmative("Update key").
					Negative("Keep current").
					Value(&update),
			),
		).WithTheme(getTheme())

		if err := confirmForm.Run(); err != nil {
			return "", err
		}

		if !update {
			return "", nil
		}
	}

	return inputAPIKey(providerName)
}

func inputAPIKey(providerName string) (string, error) {
	var apiKey string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", getProviderDisplayName(providerName))).
				Description(fmt.Sprintf("Enter your %s API key", getProviderDisplayName(providerName))).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(apiKeyValidator(providerName)),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return apiKey, nil
}

func apiKeyValidator(providerName string) func(string) error {
	p := provider.GetProvider(providerName)
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("API key is required")
		}
		if p != nil && !p.ValidateAPIKey(s) {
			return fmt.Errorf("invalid API key format for %s", p.DisplayName())
		}
		return nil
	}
}
