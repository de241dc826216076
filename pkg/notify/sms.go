package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
)

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// SMSConfig carries the recruiter notification settings.
type SMSConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

// SMS sends a one-line recruiter notification via Twilio whenever a session
// produces a terminal report. Same best-effort posture as the webhook sink.
type SMS struct {
	cfg    SMSConfig
	client messageCreator
	logger *slog.Logger
}

func NewSMS(cfg SMSConfig, logger *slog.Logger) *SMS {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMS{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sms_notifier")),
	}
}

func (s *SMS) Publish(ctx context.Context, report session.ReportPayload) error {
	_ = ctx
	if s.cfg.To == "" || s.cfg.From == "" {
		return errors.New("to/from required")
	}
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" {
		return errors.New("missing twilio credentials")
	}
	client := s.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: s.cfg.AccountSID,
			Password: s.cfg.AuthToken,
		})
		client = rest.Api
	}

	body := fmt.Sprintf("Interview finished: %s, %ds, recommendation %s",
		report.CandidateName, report.DurationSeconds, report.Evaluation.Recommendation)
	params := &api.CreateMessageParams{}
	params.SetTo(s.cfg.To)
	params.SetFrom(s.cfg.From)
	params.SetBody(body)

	resp, err := client.CreateMessage(params)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonNotifySend)
	}
	if resp == nil || resp.Sid == nil {
		return errorsx.Wrap(errors.New("missing message sid"), errorsx.ReasonNotifySend)
	}
	s.logger.Info("recruiter_notified", slog.String("message_sid", *resp.Sid))
	return nil
}

var _ session.ReportSink = (*SMS)(nil)
