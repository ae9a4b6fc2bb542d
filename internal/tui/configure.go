package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/livekeyterms/internal/config"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionProviders   ConfigSection = "providers"
	SectionStreaming   ConfigSection = "streaming"
	SectionLLM         ConfigSection = "llm"
	SectionKeyterms    ConfigSection = "keyterms"
	SectionHistory     ConfigSection = "history"
	SectionSaveExit    ConfigSection = "save_exit"
	SectionDiscardExit ConfigSection = "discard_exit"
)

// Run starts the menu-driven configuration editor on a copy of cfg.
func Run(existing *config.Config) (*ConfigureResult, error) {
	cfg := config.DefaultConfig()
	if existing != nil {
		copied := *existing
		copied.Providers = make(map[string]config.ProviderConfig, len(existing.Providers))
		for k, v := range existing.Providers {
			copied.Providers[k] = v
		}
		cfg = &copied
	}

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			if err := cfg.Validate(); err != nil {
				fmt.Println(StyleError.Render("Configuration is incomplete: " + err.Error()))
				if !confirm("Fix it now?", "Back to menu", "Discard") {
					return &ConfigureResult{Cancelled: true}, nil
				}
				continue
			}
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionProviders:
			_ = editProviders(cfg)

		case SectionStreaming:
			_ = editStreaming(cfg)

		case SectionLLM:
			_ = editLLM(cfg)

		case SectionKeyterms:
			_ = editKeyterms(cfg)

		case SectionHistory:
			_ = editHistory(cfg)
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatProvidersLabel(cfg), SectionProviders),
		huh.NewOption(formatStreamingLabel(cfg), SectionStreaming),
		huh.NewOption(formatLLMLabel(cfg), SectionLLM),
		huh.NewOption(formatKeytermsLabel(cfg), SectionKeyterms),
		huh.NewOption(formatHistoryLabel(cfg), SectionHistory),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func formatProvidersLabel(cfg *config.Config) string {
	configured := getConfiguredProviders(cfg)
	if len(configured) == 0 {
		return "Providers (none configured)"
	}
	return fmt.Sprintf("Providers (%s)", strings.Join(configured, ", "))
}

func formatStreamingLabel(cfg *config.Config) string {
	return fmt.Sprintf("Streaming (%s, %d Hz)", cfg.Streaming.SpeechModel, cfg.Streaming.SampleRate)
}

func formatLLMLabel(cfg *config.Config) string {
	return fmt.Sprintf("Keyterm LLM (%s: %s)", cfg.LLM.Provider, cfg.LLM.Model)
}

func formatKeytermsLabel(cfg *config.Config) string {
	return fmt.Sprintf("Keyterms (refresh every %d words, max %d)", cfg.Keyterms.RefreshThreshold, cfg.Keyterms.MaxKeyterms)
}

func formatHistoryLabel(cfg *config.Config) string {
	switch {
	case cfg.History.DSN != "":
		return "History (postgres)"
	case cfg.History.Path != "":
		return fmt.Sprintf("History (%s)", cfg.History.Path)
	default:
		return "History (default file)"
	}
}

func editStreaming(cfg *config.Config) error {
	model := cfg.Streaming.SpeechModel
	sampleRate := strconv.Itoa(cfg.Streaming.SampleRate)
	confidence := strconv.FormatFloat(cfg.Streaming.EndOfTurnConfidenceThreshold, 'f', -1, 64)
	minSilence := strconv.Itoa(cfg.Streaming.MinEndOfTurnSilenceWhenConfident)
	maxSilence := strconv.Itoa(cfg.Streaming.MaxTurnSilence)
	formatTurns := cfg.Streaming.FormatTurns

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech Model").
				Options(modelOptions(provider.ProviderAssemblyAI, provider.Streaming)...).
				Value(&model),
			huh.NewInput().
				Title("Sample Rate (Hz)").
				Value(&sampleRate).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("End-of-turn Confidence Threshold").
				Description("0.0 - 1.0").
				Value(&confidence).
				Validate(validateUnitFloat),
			huh.NewInput().
				Title("Min End-of-turn Silence When Confident (ms)").
				Value(&minSilence).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Max Turn Silence (ms)").
				Value(&maxSilence).
				Validate(validatePositiveInt),
			huh.NewConfirm().
				Title("Format Turns").
				Description("Punctuated, cased copies of finished turns").
				Value(&formatTurns),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Streaming.SpeechModel = model
	cfg.Streaming.SampleRate, _ = strconv.Atoi(sampleRate)
	cfg.Streaming.EndOfTurnConfidenceThreshold, _ = strconv.ParseFloat(confidence, 64)
	cfg.Streaming.MinEndOfTurnSilenceWhenConfident, _ = strconv.Atoi(minSilence)
	cfg.Streaming.MaxTurnSilence, _ = strconv.Atoi(maxSilence)
	cfg.Streaming.FormatTurns = formatTurns
	cfg.Streaming.LanguageDetection = model == "universal-streaming-multilingual"
	return nil
}

func editLLM(cfg *config.Config) error {
	providerName := cfg.LLM.Provider
	var providerOptions []huh.Option[string]
	for _, name := range provider.ListProvidersWithLLM() {
		providerOptions = append(providerOptions, huh.NewOption(getProviderDisplayName(name), name))
	}

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Keyterm LLM Provider").
				Options(providerOptions...).
				Value(&providerName),
		),
	).WithTheme(getTheme()).Run(); err != nil {
		return err
	}

	model := cfg.LLM.Model
	if providerName != cfg.LLM.Provider {
		model = provider.GetProvider(providerName).DefaultModel(provider.LLM)
	}
	maxTokens := strconv.Itoa(cfg.LLM.MaxTokens)
	refreshMaxTokens := strconv.Itoa(cfg.LLM.RefreshMaxTokens)
	timeout := cfg.LLM.Timeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(modelOptions(providerName, provider.LLM)...).
				Value(&model),
			huh.NewInput().
				Title("Max Tokens (initial generation)").
				Value(&maxTokens).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Max Tokens (refresh)").
				Value(&refreshMaxTokens).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Request Timeout").
				Description("e.g. 60s, 2m").
				Value(&timeout).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.LLM.Provider = providerName
	cfg.LLM.Model = model
	cfg.LLM.MaxTokens, _ = strconv.Atoi(maxTokens)
	cfg.LLM.RefreshMaxTokens, _ = strconv.Atoi(refreshMaxTokens)
	cfg.LLM.Timeout, _ = time.ParseDuration(timeout)

	if !containsString(getConfiguredProviders(cfg), providerName) && os.Getenv(provider.EnvVarForProvider(providerName)) == "" {
		if key, err := inputAPIKey(providerName); err == nil && key != "" {
			setAPIKey(cfg, providerName, key)
		}
	}
	return nil
}

func editKeyterms(cfg *config.Config) error {
	threshold := strconv.Itoa(cfg.Keyterms.RefreshThreshold)
	maxKeyterms := strconv.Itoa(cfg.Keyterms.MaxKeyterms)
	maxLength := strconv.Itoa(cfg.Keyterms.MaxTermLength)
	window := strconv.Itoa(cfg.Keyterms.HistoryWindow)
	domain := cfg.Keyterms.Domain

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh Threshold").
				Description("Finalized words between keyterm refreshes").
				Value(&threshold).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Max Keyterms").
				Value(&maxKeyterms).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Max Keyterm Length").
				Description("Characters").
				Value(&maxLength).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("History Window").
				Description("Previous conversations included in refresh prompts").
				Value(&window).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Domain").
				Description("What conversations are about, used in prompts").
				Value(&domain).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("domain is required")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Keyterms.RefreshThreshold, _ = strconv.Atoi(threshold)
	cfg.Keyterms.MaxKeyterms, _ = strconv.Atoi(maxKeyterms)
	cfg.Keyterms.MaxTermLength, _ = strconv.Atoi(maxLength)
	cfg.Keyterms.HistoryWindow, _ = strconv.Atoi(window)
	cfg.Keyterms.Domain = strings.TrimSpace(domain)
	return nil
}

func editHistory(cfg *config.Config) error {
	path := cfg.History.Path
	dsn := cfg.History.DSN
	watch := cfg.History.Watch

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("History File").
				Description("JSON or YAML; empty for the default location").
				Value(&path),
			huh.NewInput().
				Title("Postgres DSN").
				Description("Overrides the file when set").
				EchoMode(huh.EchoModePassword).
				Value(&dsn),
			huh.NewConfirm().
				Title("Watch File").
				Description("Reload history when the file changes").
				Value(&watch),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.History.Path = strings.TrimSpace(path)
	cfg.History.DSN = strings.TrimSpace(dsn)
	cfg.History.Watch = watch
	return nil
}

func modelOptions(providerName string, t provider.ModelType) []huh.Option[string] {
	p := provider.GetProvider(providerName)
	if p == nil {
		return nil
	}
	var options []huh.Option[string]
	for _, m := range provider.ModelsOfType(p, t) {
		options = append(options, huh.NewOption(fmt.Sprintf("%s - %s", m.Name, m.Description), m.ID))
	}
	return options
}

// summaryLines describes cfg for the save confirmation.
func summaryLines(cfg *config.Config) []string {
	lines := []string{
		fmt.Sprintf("%s %s", StyleLabel.Render("Providers:"), strings.Join(getConfiguredProviders(cfg), ", ")),
		fmt.Sprintf("%s %s (%d Hz, format_turns=%v)", StyleLabel.Render("Streaming:"), cfg.Streaming.SpeechModel, cfg.Streaming.SampleRate, cfg.Streaming.FormatTurns),
		fmt.Sprintf("%s %s (%s)", StyleLabel.Render("Keyterm LLM:"), cfg.LLM.Provider, cfg.LLM.Model),
		fmt.Sprintf("%s every %d words, up to %d terms", StyleLabel.Render("Refresh:"), cfg.Keyterms.RefreshThreshold, cfg.Keyterms.MaxKeyterms),
		fmt.Sprintf("%s %s", StyleLabel.Render("Domain:"), cfg.Keyterms.Domain),
	}
	lines = append(lines, fmt.Sprintf("%s %s", StyleLabel.Render("History:"), strings.TrimSuffix(strings.TrimPrefix(formatHistoryLabel(cfg), "History ("), ")")))
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, line := range summaryLines(cfg) {
		fmt.Println("  " + line)
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func confirm(title, yes, no string) bool {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative(yes).Negative(no).Value(&ok),
		),
	).WithTheme(getTheme()).Run()
	return err == nil && ok
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive whole number")
	}
	return nil
}

func validateUnitFloat(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 1 {
		return fmt.Errorf("must be a number between 0 and 1")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration like 30s")
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
