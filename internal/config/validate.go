package config

import (
	"fmt"

	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

func (c *Config) Validate() error {
	if c.Streaming.Host == "" {
		return fmt.Errorf("invalid streaming.host: empty")
	}
	if c.Streaming.SampleRate <= 0 {
		return fmt.Errorf("invalid streaming.sample_rate: %d", c.Streaming.SampleRate)
	}
	validEncodings := map[string]bool{"pcm_s16le": true, "pcm_mulaw": true}
	if !validEncodings[c.Streaming.Encoding] {
		return fmt.Errorf("invalid streaming.encoding: %q (must be pcm_s16le or pcm_mulaw)", c.Streaming.Encoding)
	}
	if c.Streaming.SpeechModel == "" {
		return fmt.Errorf("invalid streaming.speech_model: empty")
	}
	if t := c.Streaming.EndOfTurnConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("invalid streaming.end_of_turn_confidence_threshold: %v (must be between 0 and 1)", t)
	}
	if c.Streaming.MinEndOfTurnSilenceWhenConfident < 0 {
		return fmt.Errorf("invalid streaming.min_end_of_turn_silence_when_confident: %d", c.Streaming.MinEndOfTurnSilenceWhenConfident)
	}
	if c.Streaming.MaxTurnSilence < 0 {
		return fmt.Errorf("invalid streaming.max_turn_silence: %d", c.Streaming.MaxTurnSilence)
	}
	if c.Streaming.TerminateTimeout <= 0 {
		return fmt.Errorf("invalid streaming.terminate_timeout: %v", c.Streaming.TerminateTimeout)
	}
	if c.resolveAPIKey(provider.ProviderAssemblyAI) == "" {
		return fmt.Errorf("AssemblyAI API key required: not found in config (providers.assemblyai.api_key) or environment variable (%s)", provider.EnvAssemblyAIKey)
	}

	if c.Recording.ChunkDuration <= 0 {
		return fmt.Errorf("invalid recording.chunk_duration: %v", c.Recording.ChunkDuration)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}

	p := provider.GetProvider(c.LLM.Provider)
	if p == nil || len(provider.ModelsOfType(p, provider.LLM)) == 0 {
		return fmt.Errorf("invalid llm.provider: %q (must be one of %v)", c.LLM.Provider, provider.ListProvidersWithLLM())
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("invalid llm.model: empty")
	}
	if c.resolveAPIKey(c.LLM.Provider) == "" {
		return fmt.Errorf("%s API key required for llm: not found in config (providers.%s.api_key) or environment variable (%s)",
			p.DisplayName(), c.LLM.Provider, provider.EnvVarForProvider(c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid llm.max_tokens: %d", c.LLM.MaxTokens)
	}
	if c.LLM.RefreshMaxTokens <= 0 {
		return fmt.Errorf("invalid llm.refresh_max_tokens: %d", c.LLM.RefreshMaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature: %v", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("invalid llm.timeout: %v", c.LLM.Timeout)
	}

	if c.Keyterms.RefreshThreshold <= 0 {
		return fmt.Errorf("invalid keyterms.refresh_threshold: %d", c.Keyterms.RefreshThreshold)
	}
	if c.Keyterms.MaxKeyterms <= 0 {
		return fmt.Errorf("invalid keyterms.max_keyterms: %d", c.Keyterms.MaxKeyterms)
	}
	if c.Keyterms.MaxTermLength <= 0 {
		return fmt.Errorf("invalid keyterms.max_term_length: %d", c.Keyterms.MaxTermLength)
	}
	if c.Keyterms.HistoryWindow < 0 {
		return fmt.Errorf("invalid keyterms.history_window: %d", c.Keyterms.HistoryWindow)
	}
	if c.Keyterms.PreviewSize < 0 {
		return fmt.Errorf("invalid keyterms.preview_size: %d", c.Keyterms.PreviewSize)
	}
	if c.Keyterms.Domain == "" {
		return fmt.Errorf("invalid keyterms.domain: empty")
	}

	return nil
}
