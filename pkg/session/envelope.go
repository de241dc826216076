package session

import (
	"context"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// Inbound envelope kinds.
const (
	EnvStart  = "start"
	EnvAnswer = "answer"
)

// Outbound envelope kinds.
const (
	EnvQuestionText  = "question_text"
	EnvResumeSummary = "resume_summary"
	EnvTurnResult    = "turn_result"
	EnvReadyToListen = "ready_to_listen"
	EnvTTSError      = "tts_error"
	EnvError         = "error"
	EnvSummary       = "summary"
	EnvJSONReport    = "json_report"
	EnvDone          = "done"
)

// InboundEnvelope is one decoded control message from the candidate side.
// Start messages carry the session parameters and the extracted résumé
// profile; answer messages carry one base64 audio payload.
type InboundEnvelope struct {
	Type string `json:"type"`

	Role          string                   `json:"role,omitempty"`
	Level         string                   `json:"level,omitempty"`
	CandidateName string                   `json:"candidate_name,omitempty"`
	Resume        *interview.ResumeProfile `json:"resume,omitempty"`

	Audio    string `json:"audio,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// TurnResult is the per-turn scoring payload sent after each reasoning call.
type TurnResult struct {
	Transcript string   `json:"transcript"`
	Score      int      `json:"score"`
	Rationale  string   `json:"rationale"`
	RedFlags   []string `json:"red_flags"`
	End        bool     `json:"end"`
}

// Envelope is one outbound control message. Binary audio chunks travel
// outside the envelope stream, interleaved by the transport.
type Envelope struct {
	Type   string                     `json:"type"`
	Text   string                     `json:"text,omitempty"`
	Turn   *TurnResult                `json:"turn,omitempty"`
	Report *interview.FinalEvaluation `json:"report,omitempty"`
}

// Conn is the duplex channel one orchestrator owns for its lifetime. Receive
// blocks until the next control message arrives; there is no application read
// timeout, the candidate decides when to speak. A Receive error means the
// transport is gone and the session aborts without a report.
type Conn interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(env Envelope) error
	SendAudio(chunk []byte) error
	Close() error
}

// ReportPayload is the document posted to the external report sink when a
// session reaches a terminal report.
type ReportPayload struct {
	CandidateName   string               `json:"candidate_name"`
	InterviewDate   string               `json:"interview_date"`
	DurationSeconds int                  `json:"duration_seconds"`
	Evaluation      interview.Evaluation `json:"evaluation"`
	ResumeSummary   string               `json:"resume_summary"`
}

// ReportSink delivers a terminal report to an external consumer. Delivery is
// best-effort: failures are logged by the caller and never fail the session.
type ReportSink interface {
	Publish(ctx context.Context, report ReportPayload) error
}
