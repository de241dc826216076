package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resilience"
)

const (
	consentCallTimeout  = 5 * time.Second
	defaultCallTimeout  = 15 * time.Second
	defaultChatEndpoint = "https://api.openai.com/v1"
)

// Config carries the OpenAI reasoning settings decoded from the vendor
// settings map.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Reasoner calls the OpenAI chat completions API in JSON mode to grade
// answers and generate the next interview question.
type Reasoner struct {
	cfg     Config
	client  *http.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func NewReasoner(cfg Config, logger *slog.Logger) *Reasoner {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultChatEndpoint
	}
	timeout := defaultCallTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reasoner{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(3, 30*time.Second),
		logger:  logger.With(slog.String("component", "openai_reasoner")),
	}
}

func (r *Reasoner) Name() string { return "openai" }

func (r *Reasoner) Greeting(ctx context.Context, candidateName string) (string, error) {
	prompt := reasoner.GreetingPrompt
	if strings.TrimSpace(candidateName) != "" {
		prompt += "\n\nCandidate's name is " + candidateName + ". You may personalize the greeting if appropriate."
	}
	text, err := r.complete(ctx, chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a professional AI assistant generating interview greetings."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	return strings.TrimSpace(text), nil
}

func (r *Reasoner) InterpretConsent(ctx context.Context, question, transcript string) (reasoner.Consent, error) {
	ctx, cancel := context.WithTimeout(ctx, consentCallTimeout)
	defer cancel()

	prompt := fmt.Sprintf("Question: %q\nResponse: %q\n\nInterpret intent: granted/denied/unclear. Reply with one word only.", question, transcript)
	text, err := r.complete(ctx, chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: reasoner.ConsentSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   5,
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
	start := time.Now()
	raw, err := r.complete(ctx, chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: reasoner.SystemPrompt},
			{Role: "user", Content: reasoner.BuildTurnPrompt(turnCtx, transcript)},
		},
		Temperature:    0.4,
		MaxTokens:      400,
		ResponseFormat: &responseFormat{Type: "json_object"},
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete issues one chat completions call and returns the first choice's
// content.
func (r *Reasoner) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	if !r.breaker.Allow() {
		return "", resilience.RateLimitError{Provider: "openai", Message: "circuit open"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		r.breaker.OnError(err)
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		rlErr := resilience.RateLimitError{Provider: "openai", Message: string(body)}
		r.breaker.OnError(rlErr)
		return "", rlErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.New(string(body))
	}
	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("no choices")
	}
	r.breaker.OnSuccess()
	return decoded.Choices[0].Message.Content, nil
}

var _ reasoner.Reasoner = (*Reasoner)(nil)
