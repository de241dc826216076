package openaistt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/stt"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resilience"
)

const defaultEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// phrasePrimer biases recognition toward interview vocabulary; it is joined
// with the pending question when one is known.
const phrasePrimer = "This is a job interview. The candidate is answering questions from an AI interviewer. " +
	"Common phrases include: yes, yes we can start, yes I'm ready, no, I can, I have experience, " +
	"I worked on, we can start, let me explain, for example, I would, I did, we implemented, " +
	"I used, I developed, I was responsible for, I helped, I created, I built, I designed."

// Config carries the Whisper transcription settings decoded from the vendor
// settings map.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	Language  string `mapstructure:"language"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Transcriber converts one complete audio payload into text via the OpenAI
// Whisper API.
type Transcriber struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	timeout := 30 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "whisper_stt")),
	}
}

func (t *Transcriber) Name() string { return "openai_whisper" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType, contextHint string) (string, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName(mimeType))
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	if _, err := part.Write(audio); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	_ = writer.WriteField("model", t.cfg.Model)
	_ = writer.WriteField("language", t.cfg.Language)
	_ = writer.WriteField("response_format", "json")
	prompt := phrasePrimer
	if strings.TrimSpace(contextHint) != "" {
		prompt += " The candidate is responding to this question: " + contextHint
	}
	_ = writer.WriteField("prompt", prompt)
	if err := writer.Close(); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL, &body)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("transcription_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		raw, _ := io.ReadAll(resp.Body)
		return "", errorsx.Wrap(resilience.RateLimitError{Provider: "openai", Message: string(raw)}, errorsx.ReasonSTTRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", errorsx.Wrap(errors.New(string(raw)), errorsx.ReasonSTTTranscribe)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	transcript := strings.TrimSpace(decoded.Text)
	t.logger.Info("transcription_ok",
		slog.Int("audio_bytes", len(audio)),
		slog.Int("transcript_chars", len(transcript)),
		slog.Duration("elapsed", time.Since(start)))
	return transcript, nil
}

func fileName(mimeType string) string {
	ext := "wav"
	if idx := strings.LastIndex(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
		ext = mimeType[idx+1:]
	}
	return "audio." + ext
}

var _ stt.Transcriber = (*Transcriber)(nil)
