package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resilience"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
)

// WebhookConfig carries the external report sink settings.
type WebhookConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AuthToken string `mapstructure:"auth_token"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Webhook posts terminal reports to a configured HTTP endpoint. Delivery is
// best-effort; the caller logs and swallows failures.
type Webhook struct {
	cfg    WebhookConfig
	client *http.Client
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func NewWebhook(cfg WebhookConfig, logger *slog.Logger) *Webhook {
	timeout := 10 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		retry:  resilience.NewRetryPolicy(2, 500*time.Millisecond),
		logger: logger.With(slog.String("component", "report_webhook")),
	}
}

func (w *Webhook) Publish(ctx context.Context, report session.ReportPayload) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonReportPost)
	}

	err = w.retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if w.cfg.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+w.cfg.AuthToken)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("report sink status %d: %s", resp.StatusCode, raw)
		}
		return nil
	})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonReportPost)
	}
	w.logger.Info("report_delivered",
		slog.String("candidate", report.CandidateName),
		slog.String("recommendation", report.Evaluation.Recommendation))
	return nil
}

var _ session.ReportSink = (*Webhook)(nil)
