package notify

import (
	"context"
	"errors"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
)

// Multi fans a report out to several sinks. Every sink is attempted; errors
// are joined so the caller can log them together.
type Multi struct {
	sinks []session.ReportSink
}

func NewMulti(sinks ...session.ReportSink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Publish(ctx context.Context, report session.ReportPayload) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ session.ReportSink = (*Multi)(nil)
