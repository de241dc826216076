package deepgram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/stt"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// Config carries the Deepgram transcription settings decoded from the vendor
// settings map.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Language   string `mapstructure:"language"`
	SampleRate int    `mapstructure:"sample_rate"`
	Encoding   string `mapstructure:"encoding"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
}

// Transcriber runs one Deepgram live session per answer: the complete audio
// payload is streamed in, the final transcripts are collected and joined once
// the session closes.
type Transcriber struct {
	cfg     Config
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
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
		cfg:     cfg,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "deepgram_stt")),
	}
}

func (t *Transcriber) Name() string { return "deepgram" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType, contextHint string) (string, error) {
	_ = contextHint // Deepgram takes no free-text biasing prompt

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	clientOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	transcriptOptions := &interfaces.LiveTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		Encoding:    t.cfg.Encoding,
		SampleRate:  t.cfg.SampleRate,
		SmartFormat: true,
	}

	cb := newCollector(t.logger)
	dgClient, err := client.NewWSUsingCallback(ctx, t.cfg.APIKey, clientOptions, transcriptOptions, cb)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTConnect)
	}
	if connected := dgClient.Connect(); !connected {
		return "", errorsx.Wrap(errors.New("deepgram connection failed"), errorsx.ReasonSTTConnect)
	}

	pipeReader, pipeWriter := io.Pipe()
	go func() {
		if err := dgClient.Stream(pipeReader); err != nil && ctx.Err() == nil {
			t.logger.Error("deepgram_stream_error", slog.String("error", err.Error()))
		}
	}()

	if _, err := pipeWriter.Write(audio); err != nil {
		_ = pipeWriter.Close()
		dgClient.Stop()
		return "", errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)
	}
	_ = pipeWriter.Close()
	dgClient.Stop()

	select {
	case <-cb.done:
	case <-ctx.Done():
	}

	transcript := cb.transcript()
	if cb.lastError() != nil {
		return "", errorsx.Wrap(cb.lastError(), errorsx.ReasonSTTTranscribe)
	}
	t.logger.Info("transcription_ok",
		slog.Int("audio_bytes", len(audio)),
		slog.Int("transcript_chars", len(transcript)))
	return transcript, nil
}

// collector accumulates final transcript segments across the session.
type collector struct {
	mu     sync.Mutex
	finals []string
	err    error
	done   chan struct{}
	logger *slog.Logger
}

func newCollector(logger *slog.Logger) *collector {
	return &collector{done: make(chan struct{}), logger: logger}
}

func (c *collector) transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(strings.Join(c.finals, " "))
}

func (c *collector) lastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *collector) Open(or *msginterfaces.OpenResponse) error {
	c.logger.Debug("deepgram_connection_opened")
	return nil
}

func (c *collector) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	text := mr.Channel.Alternatives[0].Transcript
	if text == "" || !(mr.IsFinal || mr.SpeechFinal) {
		return nil
	}
	c.mu.Lock()
	c.finals = append(c.finals, text)
	c.mu.Unlock()
	return nil
}

func (c *collector) Metadata(md *msginterfaces.MetadataResponse) error {
	c.logger.Debug("deepgram_metadata_received", slog.String("request_id", md.RequestID))
	return nil
}

func (c *collector) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error { return nil }

func (c *collector) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error { return nil }

func (c *collector) Close(cr *msginterfaces.CloseResponse) error {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()
	return nil
}

func (c *collector) Error(er *msginterfaces.ErrorResponse) error {
	c.mu.Lock()
	c.err = errors.New(er.ErrMsg)
	c.mu.Unlock()
	c.logger.Error("deepgram_error",
		slog.String("error_code", er.ErrCode),
		slog.String("error_message", er.ErrMsg))
	return nil
}

func (c *collector) UnhandledEvent(byData []byte) error { return nil }

var _ stt.Transcriber = (*Transcriber)(nil)
