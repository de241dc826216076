package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

const (
	defaultModel       = "gemini-2.0-flash"
	consentCallTimeout = 5 * time.Second
)

// Config carries the Gemini reasoning settings decoded from the vendor
// settings map.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Reasoner drives interview turns through the Google GenAI API. It mirrors
// the OpenAI gateway contract: decisions are decoded with defaults and a
// failed call yields a usable fallback turn.
type Reasoner struct {
	cfg     Config
	client  *genai.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewReasoner(ctx context.Context, cfg Config, logger *slog.Logger) (*Reasoner, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := 15 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Reasoner{
		cfg:     cfg,
		client:  client,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "gemini_reasoner")),
	}, nil
}

func (r *Reasoner) Name() string { return "gemini" }

func (r *Reasoner) Greeting(ctx context.Context, candidateName string) (string, error) {
	prompt := reasoner.GreetingPrompt
	if strings.TrimSpace(candidateName) != "" {
		prompt += "\n\nCandidate's name is " + candidateName + ". You may personalize the greeting if appropriate."
	}
	text, err := r.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: ptr[float32](0.7),
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	return strings.TrimSpace(text), nil
}

func (r *Reasoner) InterpretConsent(ctx context.Context, question, transcript string) (reasoner.Consent, error) {
	ctx, cancel := context.WithTimeout(ctx, consentCallTimeout)
	defer cancel()

	prompt := fmt.Sprintf("%s\n\nQuestion: %q\nResponse: %q\n\nInterpret intent: granted/denied/unclear. Reply with one word only.",
		reasoner.ConsentSystemPrompt, question, transcript)
	text, err := r.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:     ptr[float32](0.1),
		MaxOutputTokens: 5,
	})
	if err != nil {
		r.logger.Error("consent_interpret_failed", slog.String("error", err.Error()))
		return reasoner.ConsentUnclear, errorsx.Wrap(err, errorsx.ReasonConsentInterpret)
	}
	result := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(result, "granted") || result == "yes":
		return reasoner.ConsentGranted, nil
	case strings.Contains(result, "denied") || result == "no":
		return reasoner.ConsentDenied, nil
	default:
		return reasoner.ConsentUnclear, nil
	}
}

func (r *Reasoner) NextTurn(ctx context.Context, turnCtx interview.TurnContext, transcript string) (reasoner.TurnDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.generate(ctx, reasoner.BuildTurnPrompt(turnCtx, transcript), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: reasoner.SystemPrompt}}},
		Temperature:       ptr[float32](0.4),
		MaxOutputTokens:   400,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		r.logger.Error("next_turn_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return reasoner.FallbackDecision(err.Error()), errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	r.logger.Debug("next_turn_ok", slog.Duration("elapsed", time.Since(start)))
	return reasoner.DecodeTurnDecision([]byte(raw)), nil
}

func (r *Reasoner) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty model response")
	}
	return b.String(), nil
}

func ptr[T any](v T) *T { return &v }

var _ reasoner.Reasoner = (*Reasoner)(nil)
