package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/tts"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resilience"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// chunkSize is the read granularity for the streamed response body. Chunks
// this size keep first-audio latency low without flooding the transport.
const chunkSize = 4096

// Config carries the ElevenLabs synthesis settings decoded from the vendor
// settings map.
type Config struct {
	APIKey          string  `mapstructure:"api_key"`
	VoiceID         string  `mapstructure:"voice_id"`
	ModelID         string  `mapstructure:"model_id"`
	BaseURL         string  `mapstructure:"base_url"`
	OutputFormat    string  `mapstructure:"output_format"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
	StreamLatency   int     `mapstructure:"stream_latency"`
	TimeoutMS       int     `mapstructure:"timeout_ms"`
}

// Synthesizer streams synthesized speech for one utterance over the
// ElevenLabs HTTP streaming endpoint.
type Synthesizer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Synthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_turbo_v2_5"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = 0.8
	}
	if cfg.StreamLatency == 0 {
		cfg.StreamLatency = 3
	}
	timeout := 60 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "elevenlabs_tts")),
	}
}

func (s *Synthesizer) Name() string { return "elevenlabs" }

func (s *Synthesizer) Synthesize(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	audioCh := make(chan []byte, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(audioCh)
		defer close(errCh)

		if s.cfg.APIKey == "" || s.cfg.VoiceID == "" {
			errCh <- errorsx.Wrap(errors.New("missing elevenlabs config"), errorsx.ReasonTTSConnect)
			return
		}

		payload, err := json.Marshal(map[string]any{
			"text":     text,
			"model_id": s.cfg.ModelID,
			"voice_settings": map[string]any{
				"stability":        s.cfg.Stability,
				"similarity_boost": s.cfg.SimilarityBoost,
			},
		})
		if err != nil {
			errCh <- errorsx.Wrap(err, errorsx.ReasonTTSStream)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.streamURL(), bytes.NewReader(payload))
		if err != nil {
			errCh <- errorsx.Wrap(err, errorsx.ReasonTTSConnect)
			return
		}
		req.Header.Set("xi-api-key", s.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.Error("tts_request_failed", slog.String("error", err.Error()))
			errCh <- errorsx.Wrap(err, errorsx.ReasonTTSConnect)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(resp.Body)
			errCh <- errorsx.Wrap(resilience.RateLimitError{Provider: "elevenlabs", Message: string(body)}, errorsx.ReasonTTSRateLimit)
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			errCh <- errorsx.Wrap(errors.New(string(body)), errorsx.ReasonTTSStream)
			return
		}

		firstChunk := true
		total := 0
		buf := make([]byte, chunkSize)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				if firstChunk {
					firstChunk = false
					s.logger.Debug("tts_first_chunk",
						slog.Duration("latency", time.Since(start)))
				}
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				total += n
				select {
				case audioCh <- chunk:
				case <-ctx.Done():
					errCh <- errorsx.Wrap(ctx.Err(), errorsx.ReasonTTSStream)
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- errorsx.Wrap(readErr, errorsx.ReasonTTSStream)
				return
			}
		}
		s.logger.Info("tts_stream_complete",
			slog.Int("audio_bytes", total),
			slog.Int("text_chars", len(text)),
			slog.Duration("elapsed", time.Since(start)))
	}()

	return audioCh, errCh
}

func (s *Synthesizer) streamURL() string {
	q := url.Values{}
	q.Set("output_format", s.cfg.OutputFormat)
	q.Set("optimize_streaming_latency", strconv.Itoa(s.cfg.StreamLatency))
	return s.cfg.BaseURL + "/v1/text-to-speech/" + s.cfg.VoiceID + "/stream?" + q.Encode()
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
