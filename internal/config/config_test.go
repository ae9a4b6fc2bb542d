package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

// createTestConfig returns a valid configuration with keys set in the config
func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Providers = map[string]ProviderConfig{
		provider.ProviderAssemblyAI: {APIKey: strings.Repeat("a", 32)},
		provider.ProviderOpenAI:     {APIKey: "sk-test"},
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv(provider.EnvAssemblyAIKey, "")
	t.Setenv(provider.EnvOpenAIKey, "")
	t.Setenv(provider.EnvGroqKey, "")

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{
			name:    "empty host",
			modify:  func(c *Config) { c.Streaming.Host = "" },
			wantErr: "streaming.host",
		},
		{
			name:    "bad encoding",
			modify:  func(c *Config) { c.Streaming.Encoding = "flac" },
			wantErr: "streaming.encoding",
		},
		{
			name:    "confidence above one",
			modify:  func(c *Config) { c.Streaming.EndOfTurnConfidenceThreshold = 1.5 },
			wantErr: "end_of_turn_confidence_threshold",
		},
		{
			name:    "missing streaming key",
			modify:  func(c *Config) { delete(c.Providers, provider.ProviderAssemblyAI) },
			wantErr: "AssemblyAI API key required",
		},
		{
			name:    "zero chunk duration",
			modify:  func(c *Config) { c.Recording.ChunkDuration = 0 },
			wantErr: "recording.chunk_duration",
		},
		{
			name:    "unknown llm provider",
			modify:  func(c *Config) { c.LLM.Provider = "mistral" },
			wantErr: "llm.provider",
		},
		{
			name: "groq llm without key",
			modify: func(c *Config) {
				c.LLM.Provider = provider.ProviderGroq
				c.LLM.Model = "llama-3.3-70b-versatile"
			},
			wantErr: "Groq API key required",
		},
		{
			name: "openai llm with key",
			modify: func(c *Config) {
				c.LLM.Provider = provider.ProviderOpenAI
				c.LLM.Model = "gpt-4o-mini"
			},
		},
		{
			name:    "temperature out of range",
			modify:  func(c *Config) { c.LLM.Temperature = 3 },
			wantErr: "llm.temperature",
		},
		{
			name:    "zero threshold",
			modify:  func(c *Config) { c.Keyterms.RefreshThreshold = 0 },
			wantErr: "keyterms.refresh_threshold",
		},
		{
			name:    "empty domain",
			modify:  func(c *Config) { c.Keyterms.Domain = "" },
			wantErr: "keyterms.domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv(provider.EnvAssemblyAIKey, "from-env")

	cfg := DefaultConfig()
	if got := cfg.resolveAPIKey(provider.ProviderAssemblyAI); got != "from-env" {
		t.Errorf("env fallback = %q", got)
	}

	cfg.Providers[provider.ProviderAssemblyAI] = ProviderConfig{APIKey: "from-config"}
	if got := cfg.resolveAPIKey(provider.ProviderAssemblyAI); got != "from-config" {
		t.Errorf("config key should win, got %q", got)
	}

	if got := cfg.resolveAPIKey("unknown"); got != "" {
		t.Errorf("unknown provider key = %q", got)
	}
}

func TestConfig_ToStreamingConfig(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantURL string
	}{
		{"bare host", "streaming.assemblyai.com", "wss://streaming.assemblyai.com/v3/ws"},
		{"explicit scheme", "ws://127.0.0.1:8080/", "ws://127.0.0.1:8080/v3/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			cfg.Streaming.Host = tt.host
			sc := cfg.ToStreamingConfig()

			if got := sc.Endpoint.URL(); got != tt.wantURL {
				t.Errorf("endpoint = %q, want %q", got, tt.wantURL)
			}
			if sc.APIKey != strings.Repeat("a", 32) {
				t.Errorf("APIKey = %q", sc.APIKey)
			}
			if sc.SampleRate != 16000 || sc.SpeechModel != "universal-streaming-english" || !sc.FormatTurns {
				t.Errorf("streaming config = %+v", sc)
			}
			if sc.MinEndOfTurnSilenceWhenConfident != 400 || sc.MaxTurnSilence != 1280 {
				t.Errorf("turn silences = %d / %d", sc.MinEndOfTurnSilenceWhenConfident, sc.MaxTurnSilence)
			}
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg := createTestConfig()
	cfg.Recording.ChunkDuration = 50 * time.Millisecond
	cfg.Keyterms.RefreshThreshold = 75
	cfg.LLM.MaxTokens = 1234

	rc := cfg.ToRecordingConfig()
	if rc.SampleRate != 16000 || rc.Channels != 1 || rc.ChunkDuration != 50*time.Millisecond {
		t.Errorf("recording config = %+v", rc)
	}

	kc := cfg.ToKeytermsConfig()
	if kc.InitialMaxTokens != 1234 || kc.RefreshMaxTokens != 1500 || kc.MaxKeyterms != 100 {
		t.Errorf("keyterms config = %+v", kc)
	}

	lc := cfg.ToLLMConfig()
	if lc.Provider != provider.ProviderAssemblyAI || lc.APIKey == "" || lc.Timeout != 60*time.Second {
		t.Errorf("llm config = %+v", lc)
	}

	sc := cfg.ToSessionConfig()
	if sc.Refresh.Threshold != 75 || sc.Run.TerminateTimeout != 5*time.Second {
		t.Errorf("session config = %+v", sc)
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[streaming]
  sample_rate = 8000
  terminate_timeout = "2s"

[keyterms]
  refresh_threshold = 30

[providers.assemblyai]
  api_key = "key-from-file"

[unknown_section]
  foo = 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Streaming.SampleRate != 8000 || cfg.Streaming.TerminateTimeout != 2*time.Second {
		t.Errorf("streaming = %+v", cfg.Streaming)
	}
	if cfg.Keyterms.RefreshThreshold != 30 {
		t.Errorf("refresh_threshold = %d", cfg.Keyterms.RefreshThreshold)
	}
	// untouched keys keep defaults
	if cfg.Streaming.SpeechModel != "universal-streaming-english" || cfg.Keyterms.MaxKeyterms != 100 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Providers[provider.ProviderAssemblyAI].APIKey != "key-from-file" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
}

func TestLoadFrom_Missing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadFrom() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[streaming\nhost ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := createTestConfig()
	cfg.Keyterms.Domain = "veterinary clinic intake"
	cfg.History.DSN = "postgres://localhost/calls"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Keyterms.Domain != cfg.Keyterms.Domain || loaded.History.DSN != cfg.History.DSN {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Recording.ChunkDuration != cfg.Recording.ChunkDuration {
		t.Errorf("chunk_duration = %v", loaded.Recording.ChunkDuration)
	}
}

func TestConfig_GroundTruthPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GroundTruthPath("/data/calls/a.wav"); got != "/data/calls/ground_truth.txt" {
		t.Errorf("default ground truth = %q", got)
	}
	cfg.Comparison.GroundTruth = "/tmp/truth.txt"
	if got := cfg.GroundTruthPath("/data/calls/a.wav"); got != "/tmp/truth.txt" {
		t.Errorf("configured ground truth = %q", got)
	}
}
