package config

import (
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Streaming: StreamingConfig{
			Host:                             "streaming.assemblyai.com",
			SampleRate:                       16000,
			Encoding:                         "pcm_s16le",
			SpeechModel:                      "universal-streaming-english",
			EndOfTurnConfidenceThreshold:     0.4,
			MinEndOfTurnSilenceWhenConfident: 400,
			MaxTurnSilence:                   1280,
			LanguageDetection:                false,
			FormatTurns:                      true,
			TerminateTimeout:                 5 * time.Second,
		},
		Recording: RecordingConfig{
			Device:            "",
			ChunkDuration:     100 * time.Millisecond,
			ChannelBufferSize: 30,
		},
		LLM: LLMConfig{
			Provider:         provider.ProviderAssemblyAI,
			Model:            "claude-sonnet-4-5-20250929",
			MaxTokens:        2000,
			RefreshMaxTokens: 1500,
			Temperature:      0,
			Timeout:          60 * time.Second,
		},
		Keyterms: KeytermsConfig{
			RefreshThreshold: 50,
			MaxKeyterms:      100,
			MaxTermLength:    50,
			HistoryWindow:    3,
			PreviewSize:      50,
			Domain:           "housing and healthcare appointment scheduling",
		},
		History: HistoryConfig{
			Path:  "",
			Watch: true,
		},
		Providers: make(map[string]ProviderConfig),
	}
}
