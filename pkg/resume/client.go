package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

const defaultMaxDocumentBytes = 10 << 20

// Config carries the extractor collaborator settings.
type Config struct {
	Endpoint         string `mapstructure:"endpoint"`
	APIKey           string `mapstructure:"api_key"`
	TimeoutMS        int    `mapstructure:"timeout_ms"`
	MaxDocumentBytes int    `mapstructure:"max_document_bytes"`
}

// Client posts the uploaded document to the extraction service and decodes
// the returned profile.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	timeout := 30 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "resume_extractor")),
	}
}

func (c *Client) Extract(ctx context.Context, document []byte, filename string) (*interview.ResumeProfile, error) {
	if len(document) == 0 {
		return nil, ErrEmpty
	}
	if len(document) > c.cfg.MaxDocumentBytes {
		return nil, ErrOversized
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}
	if _, err := part.Write(document); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}
	if err := writer.Close(); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &body)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return nil, ErrOversized
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrUnreadable
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		raw, _ := io.ReadAll(resp.Body)
		return nil, errorsx.Wrap(fmt.Errorf("extractor status %d: %s", resp.StatusCode, raw), errorsx.ReasonResumeExtract)
	}

	var profile interview.ResumeProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonResumeExtract)
	}
	c.logger.Info("resume_extracted",
		slog.String("file", filename),
		slog.Int("document_bytes", len(document)))
	return &profile, nil
}

var _ Extractor = (*Client)(nil)
