package config

import (
	"os"
	"strings"

	"github.com/leonardotrapani/livekeyterms/internal/keyterms"
	"github.com/leonardotrapani/livekeyterms/internal/llm"
	"github.com/leonardotrapani/livekeyterms/internal/provider"
	"github.com/leonardotrapani/livekeyterms/internal/recording"
	"github.com/leonardotrapani/livekeyterms/internal/refresh"
	"github.com/leonardotrapani/livekeyterms/internal/session"
	"github.com/leonardotrapani/livekeyterms/internal/transcriber"
)

const streamingPath = "/v3/ws"

func (c *Config) ToRecordingConfig() recording.Config {
	rc := recording.DefaultConfig()
	rc.SampleRate = c.Streaming.SampleRate
	rc.ChunkDuration = c.Recording.ChunkDuration
	rc.Device = c.Recording.Device
	rc.ChannelBufferSize = c.Recording.ChannelBufferSize
	return rc
}

func (c *Config) ToStreamingConfig() transcriber.Config {
	s := c.Streaming
	return transcriber.Config{
		Endpoint:                         c.streamingEndpoint(),
		APIKey:                           c.resolveAPIKey(provider.ProviderAssemblyAI),
		SampleRate:                       s.SampleRate,
		Encoding:                         s.Encoding,
		SpeechModel:                      s.SpeechModel,
		EndOfTurnConfidenceThreshold:     s.EndOfTurnConfidenceThreshold,
		MinEndOfTurnSilenceWhenConfident: s.MinEndOfTurnSilenceWhenConfident,
		MaxTurnSilence:                   s.MaxTurnSilence,
		LanguageDetection:                s.LanguageDetection,
		FormatTurns:                      s.FormatTurns,
	}
}

// streamingEndpoint builds the websocket endpoint from streaming.host. A
// host without a scheme is reached over wss.
func (c *Config) streamingEndpoint() *provider.EndpointConfig {
	host := strings.TrimSuffix(c.Streaming.Host, "/")
	if !strings.Contains(host, "://") {
		host = "wss://" + host
	}
	path := streamingPath
	if p := provider.GetProvider(provider.ProviderAssemblyAI); p != nil {
		if m := provider.FindModel(p, c.Streaming.SpeechModel); m != nil && m.Endpoint != nil {
			path = m.Endpoint.Path
		}
	}
	return &provider.EndpointConfig{BaseURL: host, Path: path}
}

// ToLLMConfig returns the keyterm generation adapter configuration
func (c *Config) ToLLMConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.resolveAPIKey(c.LLM.Provider),
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	}
}

func (c *Config) ToKeytermsConfig() keyterms.Config {
	return keyterms.Config{
		MaxKeyterms:      c.Keyterms.MaxKeyterms,
		MaxTermLength:    c.Keyterms.MaxTermLength,
		HistoryWindow:    c.Keyterms.HistoryWindow,
		PreviewSize:      c.Keyterms.PreviewSize,
		InitialMaxTokens: c.LLM.MaxTokens,
		RefreshMaxTokens: c.LLM.RefreshMaxTokens,
		Domain:           c.Keyterms.Domain,
	}
}

func (c *Config) ToSessionConfig() session.Config {
	return session.Config{
		Refresh: refresh.Config{Threshold: c.Keyterms.RefreshThreshold},
		Run:     session.RunConfig{TerminateTimeout: c.Streaming.TerminateTimeout},
	}
}

// resolveAPIKey returns the API key for a provider from the providers table,
// falling back to the provider's environment variable.
func (c *Config) resolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}

	if envVar := provider.EnvVarForProvider(providerName); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}
