package reasoner

import (
	"context"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// Consent is the interpreted intent of a consent-gate answer.
type Consent string

const (
	ConsentGranted Consent = "granted"
	ConsentDenied  Consent = "denied"
	ConsentUnclear Consent = "unclear"
)

// Reasoner defines the contract for any reasoning vendor implementation.
// NextTurn must always return a structurally valid decision; malformed or
// partial model output is normalized behind this boundary and never reaches
// the orchestrator.
type Reasoner interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Greeting generates a varied interviewer greeting, personalized with the
	// candidate name when known.
	Greeting(ctx context.Context, candidateName string) (string, error)
	// InterpretConsent classifies the candidate's response to the consent
	// question with a short, low-latency prompt.
	InterpretConsent(ctx context.Context, question, transcript string) (Consent, error)
	// NextTurn grades the latest answer and generates the next question.
	NextTurn(ctx context.Context, turnCtx interview.TurnContext, transcript string) (TurnDecision, error)
}
