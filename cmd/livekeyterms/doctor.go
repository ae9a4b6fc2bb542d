package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/leonardotrapani/livekeyterms/internal/deps"
	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/spf13/cobra"
)

func doctorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, API keys, history and microphone tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), os.Stdout, *configPath)
		},
	}
}

func runDoctor(ctx context.Context, w io.Writer, configPath string) error {
	ok := true

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(w, "[x] config: %v\n", err)
		return fmt.Errorf("doctor found problems")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "[x] config: %v\n", err)
		ok = false
	} else {
		fmt.Fprintln(w, "[ok] config is valid")
	}

	cfg.History.Watch = false
	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(w, "[x] history: %v\n", err)
		ok = false
	} else {
		records := history.LoadOrEmpty(ctx, store)
		closeStore()
		fmt.Fprintf(w, "[ok] history: %d previous conversations\n", len(records))
	}

	for _, s := range deps.CheckAll(ctx, deps.CaptureTools) {
		if !s.Installed {
			fmt.Fprintf(w, "[!] %s not found (needed for microphone mode only)\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "[ok] %s %s\n", s.Path, s.Version)
	}

	if !ok {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
