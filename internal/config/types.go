package config

import "time"

type Config struct {
	Streaming  StreamingConfig           `toml:"streaming"`
	Recording  RecordingConfig           `toml:"recording"`
	LLM        LLMConfig                 `toml:"llm"`
	Keyterms   KeytermsConfig            `toml:"keyterms"`
	History    HistoryConfig             `toml:"history"`
	Comparison ComparisonConfig          `toml:"comparison"`
	Metrics    MetricsConfig             `toml:"metrics"`
	Providers  map[string]ProviderConfig `toml:"providers"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// StreamingConfig holds the query parameters sent when opening a
// streaming transcription session.
type StreamingConfig struct {
	Host                             string        `toml:"host"`
	SampleRate                       int           `toml:"sample_rate"`
	Encoding                         string        `toml:"encoding"`
	SpeechModel                      string        `toml:"speech_model"`
	EndOfTurnConfidenceThreshold     float64       `toml:"end_of_turn_confidence_threshold"`
	MinEndOfTurnSilenceWhenConfident int           `toml:"min_end_of_turn_silence_when_confident"` // ms
	MaxTurnSilence                   int           `toml:"max_turn_silence"`                       // ms
	LanguageDetection                bool          `toml:"language_detection"`
	FormatTurns                      bool          `toml:"format_turns"`
	TerminateTimeout                 time.Duration `toml:"terminate_timeout"`
}

type RecordingConfig struct {
	Device            string        `toml:"device"`
	ChunkDuration     time.Duration `toml:"chunk_duration"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
}

// LLMConfig configures the keyterm generation service
type LLMConfig struct {
	Provider         string        `toml:"provider"`
	Model            string        `toml:"model"`
	BaseURL          string        `toml:"base_url"` // overrides the provider default
	MaxTokens        int           `toml:"max_tokens"`
	RefreshMaxTokens int           `toml:"refresh_max_tokens"`
	Temperature      float32       `toml:"temperature"`
	Timeout          time.Duration `toml:"timeout"`
}

type KeytermsConfig struct {
	RefreshThreshold int    `toml:"refresh_threshold"` // words between refreshes
	MaxKeyterms      int    `toml:"max_keyterms"`
	MaxTermLength    int    `toml:"max_term_length"`
	HistoryWindow    int    `toml:"history_window"` // records included in refresh prompts
	PreviewSize      int    `toml:"preview_size"`   // current keyterms shown in refresh prompts
	Domain           string `toml:"domain"`
}

// HistoryConfig selects where previous conversations are read from.
// A non-empty DSN takes precedence over Path.
type HistoryConfig struct {
	Path  string `toml:"path"`
	DSN   string `toml:"dsn"`
	Watch bool   `toml:"watch"`
}

type ComparisonConfig struct {
	GroundTruth string `toml:"ground_truth"` // empty: ground_truth.txt beside the audio file
}

type MetricsConfig struct {
	Listen string `toml:"listen"` // e.g. ":9464", empty disables /metrics
}
