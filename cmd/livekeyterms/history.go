package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/spf13/cobra"
)

func historyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the previous conversations used for keyterm generation",
	}

	cmd.AddCommand(historyShowCmd(configPath))
	cmd.AddCommand(historyMigrateCmd(configPath))
	return cmd
}

func historyShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the previous conversations that would be loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.History.Watch = false

			store, closeStore, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			printRecords(os.Stdout, records)
			return nil
		},
	}
}

func historyMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the conversations table in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.History.DSN == "" {
				return fmt.Errorf("history.dsn is not set")
			}

			store, err := history.OpenPostgresStore(cmd.Context(), cfg.History.DSN, 0)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("conversations table is ready")
			return nil
		},
	}
}

const previewLen = 100

func printRecords(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No previous conversations.")
		return
	}
	fmt.Fprintf(w, "%d previous conversations:\n", len(records))
	for i, r := range records {
		text := strings.Join(strings.Fields(r.Text), " ")
		if runes := []rune(text); len(runes) > previewLen {
			text = string(runes[:previewLen]) + "..."
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, text)
	}
}
