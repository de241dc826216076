package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/stt"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/tts"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/configutil"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/deepgram"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/elevenlabs"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/gemini"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/openai"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/openaistt"
)

// NewTranscriber builds the configured speech-to-text provider.
func NewTranscriber(provider string, settings map[string]any, logger *slog.Logger) (stt.Transcriber, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai", "whisper":
		var cfg openaistt.Config
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, fmt.Errorf("decode stt settings: %w", err)
		}
		if err := configutil.RequireString(cfg.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		return openaistt.New(cfg, logger), nil
	case "deepgram":
		var cfg deepgram.Config
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, fmt.Errorf("decode stt settings: %w", err)
		}
		if err := configutil.RequireString(cfg.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		return deepgram.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", provider)
	}
}

// NewSynthesizer builds the configured speech-synthesis provider.
func NewSynthesizer(provider string, settings map[string]any, logger *slog.Logger) (tts.Synthesizer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "elevenlabs":
		var cfg elevenlabs.Config
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, fmt.Errorf("decode tts settings: %w", err)
		}
		if err := configutil.RequireString(cfg.APIKey, "vendors.tts.settings.api_key"); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(cfg.VoiceID, "vendors.tts.settings.voice_id"); err != nil {
			return nil, err
		}
		return elevenlabs.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", provider)
	}
}

// NewReasoner builds the configured reasoning provider.
func NewReasoner(ctx context.Context, provider string, settings map[string]any, logger *slog.Logger) (reasoner.Reasoner, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		var cfg openai.Config
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, fmt.Errorf("decode llm settings: %w", err)
		}
		if err := configutil.RequireString(cfg.APIKey, "vendors.llm.settings.api_key"); err != nil {
			return nil, err
		}
		return openai.NewReasoner(cfg, logger), nil
	case "gemini":
		var cfg gemini.Config
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, fmt.Errorf("decode llm settings: %w", err)
		}
		return gemini.NewReasoner(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
