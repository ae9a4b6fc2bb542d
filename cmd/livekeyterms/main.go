package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/leonardotrapani/livekeyterms/internal/config"
	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/keyterms"
	"github.com/leonardotrapani/livekeyterms/internal/llm"
	"github.com/leonardotrapani/livekeyterms/internal/observe"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
	"github.com/leonardotrapani/livekeyterms/internal/recording"
	"github.com/leonardotrapani/livekeyterms/internal/session"
	"github.com/leonardotrapani/livekeyterms/internal/transcriber"
	"github.com/leonardotrapani/livekeyterms/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath   string
	sampleRate   int
	threshold    int
	groundTruth  string
	hidePartials bool
}

func rootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "livekeyterms [audio-file]",
		Short: "Live transcription with conversation-aware keyterm boosting",
		Long: `Streams audio to AssemblyAI and keeps the session's keyterms in step
with the conversation, using an LLM to generate them from previous
conversations and the live transcript.

With an audio file, the file is transcribed twice (without and with
boosting) and the results are compared. Without one, the microphone is
transcribed with boosting until interrupted.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().IntVar(&opts.sampleRate, "sample-rate", 0, "audio sample rate in Hz (default from config, 16000)")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 0, "words between keyterm refreshes (default from config, 50)")
	cmd.Flags().StringVar(&opts.groundTruth, "ground-truth", "", "reference transcript shown in comparison mode")
	cmd.Flags().BoolVar(&opts.hidePartials, "hide-partials", false, "do not print partial turns")

	cmd.AddCommand(
		configureCmd(),
		modelsCmd(),
		historyCmd(&opts.configPath),
		doctorCmd(&opts.configPath),
	)
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFrom(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	return cfg, err
}

func runTranscribe(ctx context.Context, args []string, opts rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.sampleRate > 0 {
		cfg.Streaming.SampleRate = opts.sampleRate
	}
	if opts.threshold > 0 {
		cfg.Keyterms.RefreshThreshold = opts.threshold
	}
	if opts.groundTruth != "" {
		cfg.Comparison.GroundTruth = opts.groundTruth
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Metrics must be installed before anything asks for the default instance.
	if cfg.Metrics.Listen != "" {
		shutdown, err := startMetrics(ctx, cfg.Metrics.Listen)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	adapter, err := llm.NewAdapter(cfg.ToLLMConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM adapter: %w", err)
	}

	reporter := tui.NewReporter(os.Stdout)
	reporter.ShowPartials = !opts.hidePartials

	deps := session.Deps{
		NewClient: func() transcriber.StreamingClient {
			return transcriber.NewAssemblyAIClient(cfg.ToStreamingConfig())
		},
		Extractor: keyterms.NewExtractor(adapter, cfg.ToKeytermsConfig()),
		History:   store,
		Reporter:  reporter,
		Metrics:   observe.DefaultMetrics(),
	}

	if len(args) == 1 {
		audioPath := args[0]
		deps.NewSource = func() recording.Source {
			return recording.NewFileStreamer(audioPath, cfg.ToRecordingConfig())
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err := session.Compare(ctx, audioPath, cfg.GroundTruthPath(audioPath), cfg.ToSessionConfig(), deps)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("comparison failed: %w", err)
		}
		return nil
	}

	if err := recording.CheckPipeWireAvailable(ctx); err != nil {
		return fmt.Errorf("microphone unavailable: %w", err)
	}
	deps.NewSource = func() recording.Source {
		return recording.NewRecorder(cfg.ToRecordingConfig())
	}
	if _, err := session.Live(ctx, cfg.ToSessionConfig(), deps); err != nil {
		return fmt.Errorf("live session failed: %w", err)
	}
	return nil
}

func startMetrics(ctx context.Context, addr string) (func(), error) {
	handler, shutdown, err := observe.InitProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := observe.Serve(serveCtx, addr, handler); err != nil {
			log.Printf("metrics: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
		if err := shutdown(context.Background()); err != nil {
			log.Printf("metrics: shutdown: %v", err)
		}
	}, nil
}

// openHistory returns the configured history store and a function releasing it.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if cfg.History.DSN != "" {
		store, err := history.OpenPostgresStore(ctx, cfg.History.DSN, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return store, store.Close, nil
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve history path: %w", err)
	}
	store := history.NewFileStore(path)
	if cfg.History.Watch {
		if err := store.Watch(ctx); err != nil {
			log.Printf("history: watch disabled: %v", err)
		}
	}
	return store, store.Stop, nil
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration for livekeyterms.
This will guide you through setting up:
- Provider API keys (AssemblyAI, OpenAI, Groq)
- Streaming transcription parameters
- The keyterm generation model and refresh threshold
- Where previous conversations are read from`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Printf("Config file location: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next Steps:")
	fmt.Println("1. Compare boosting on a recording: livekeyterms path/to/call.wav")
	fmt.Println("2. Transcribe the microphone live:  livekeyterms")
	return nil
}

func modelsCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available streaming and LLM models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: streaming, llm")

	return cmd
}

func runModelList(providerFilter, typeFilter string) error {
	var filterType *provider.ModelType
	if typeFilter != "" {
		switch strings.ToLower(typeFilter) {
		case "streaming":
			t := provider.Streaming
			filterType = &t
		case "llm":
			t := provider.LLM
			filterType = &t
		default:
			return fmt.Errorf("invalid type: %s (use 'streaming' or 'llm')", typeFilter)
		}
	}

	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		models := p.Models()
		if filterType != nil {
			models = provider.ModelsOfType(p, *filterType)
		}
		if len(models) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", providerName)
		for _, m := range models {
			fmt.Println(formatModelLine(m, p.DefaultModel(m.Type) == m.ID))
		}
	}

	fmt.Println()
	return nil
}

func formatModelLine(m provider.Model, isDefault bool) string {
	parts := []string{m.Type.String()}
	if isDefault {
		parts = append(parts, "default")
	}

	line := "  " + m.ID
	if m.Description != "" {
		line += " - " + m.Description
	}
	return line + fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
}
