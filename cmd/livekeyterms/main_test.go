package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leonardotrapani/livekeyterms/internal/config"
	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

func TestFormatModelLine(t *testing.T) {
	tests := []struct {
		name      string
		model     provider.Model
		isDefault bool
		want      string
	}{
		{
			name:      "default streaming model",
			model:     provider.Model{ID: "universal-streaming-english", Description: "English", Type: provider.Streaming},
			isDefault: true,
			want:      "  universal-streaming-english - English [streaming, default]",
		},
		{
			name:  "llm without description",
			model: provider.Model{ID: "gpt-4o-mini", Type: provider.LLM},
			want:  "  gpt-4o-mini [llm]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatModelLine(tt.model, tt.isDefault); got != tt.want {
				t.Errorf("formatModelLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunModelList_Errors(t *testing.T) {
	if err := runModelList("nope", ""); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unknown provider error = %v", err)
	}
	if err := runModelList("", "batch"); err == nil || !strings.Contains(err.Error(), "invalid type") {
		t.Errorf("invalid type error = %v", err)
	}
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, nil)
	if !strings.Contains(buf.String(), "No previous conversations") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	long := strings.Repeat("x", 150)
	printRecords(&buf, []history.Record{{Text: "Called about\n  Section 8 housing"}, {Text: long}})
	out := buf.String()
	if !strings.Contains(out, "1. Called about Section 8 housing") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "2. "+strings.Repeat("x", previewLen)+"...") {
		t.Errorf("long record not truncated: %q", out)
	}
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("loadConfig() error = %v", err)
	}
}

func TestOpenHistory_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "previous.json")
	if err := os.WriteFile(path, []byte(`[{"text": "first call"}, {"text": "second call"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.History.Path = path
	cfg.History.Watch = false

	store, closeStore, err := openHistory(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openHistory() error = %v", err)
	}
	defer closeStore()

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 || records[1].Text != "second call" {
		t.Errorf("records = %+v", records)
	}
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"a.wav", "b.wav"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for two audio files")
	}
}

func TestRunDoctor(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "previous.yaml")
	if err := os.WriteFile(historyPath, []byte("- text: first call\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.History.Path = historyPath
	configPath := filepath.Join(dir, "config.toml")
	if err := config.SaveTo(cfg, configPath); err != nil {
		t.Fatal(err)
	}

	t.Setenv(provider.EnvAssemblyAIKey, "")
	var buf bytes.Buffer
	err := runDoctor(context.Background(), &buf, configPath)
	out := buf.String()

	if err == nil {
		t.Error("expected problems without an API key")
	}
	if !strings.Contains(out, "[x] config: AssemblyAI API key required") {
		t.Errorf("output missing key problem:\n%s", out)
	}
	if !strings.Contains(out, "[ok] history: 1 previous conversations") {
		t.Errorf("output missing history line:\n%s", out)
	}
}
