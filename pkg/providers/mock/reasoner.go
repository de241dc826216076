package mock

import (
	"context"
	"sync"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// ReasonerConfig scripts the mock reasoning gateway. Decisions are returned
// in order; the last one repeats once the script is exhausted.
type ReasonerConfig struct {
	GreetingText string
	Consent      reasoner.Consent
	ConsentErr   error
	Decisions    []reasoner.TurnDecision
	TurnErr      error
}

type Reasoner struct {
	cfg      ReasonerConfig
	mu       sync.Mutex
	turns    int
	contexts []interview.TurnContext
	answers  []string
}

func NewReasoner(cfg ReasonerConfig) *Reasoner {
	if cfg.GreetingText == "" {
		cfg.GreetingText = "Hi, I am Saj from SA Technologies. I will ask you some questions based on your profile. Shall we start?"
	}
	if cfg.Consent == "" {
		cfg.Consent = reasoner.ConsentGranted
	}
	if len(cfg.Decisions) == 0 {
		cfg.Decisions = []reasoner.TurnDecision{reasoner.FallbackDecision("scripted default").Normalized()}
	}
	return &Reasoner{cfg: cfg}
}

func (r *Reasoner) Name() string { return "mock_reasoner" }

func (r *Reasoner) Greeting(ctx context.Context, candidateName string) (string, error) {
	return r.cfg.GreetingText, nil
}

func (r *Reasoner) InterpretConsent(ctx context.Context, question, transcript string) (reasoner.Consent, error) {
	if r.cfg.ConsentErr != nil {
		return reasoner.ConsentUnclear, r.cfg.ConsentErr
	}
	return r.cfg.Consent, nil
}

func (r *Reasoner) NextTurn(ctx context.Context, turnCtx interview.TurnContext, transcript string) (reasoner.TurnDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, turnCtx)
	r.answers = append(r.answers, transcript)
	if r.cfg.TurnErr != nil {
		return reasoner.FallbackDecision(r.cfg.TurnErr.Error()), r.cfg.TurnErr
	}
	idx := r.turns
	if idx >= len(r.cfg.Decisions) {
		idx = len(r.cfg.Decisions) - 1
	}
	r.turns++
	return r.cfg.Decisions[idx].Normalized(), nil
}

// Turns reports how many turn decisions were requested.
func (r *Reasoner) Turns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turns
}

// Contexts returns the turn contexts observed per call.
func (r *Reasoner) Contexts() []interview.TurnContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interview.TurnContext, len(r.contexts))
	copy(out, r.contexts)
	return out
}

// Answers returns the transcripts passed per call.
func (r *Reasoner) Answers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.answers))
	copy(out, r.answers)
	return out
}

var _ reasoner.Reasoner = (*Reasoner)(nil)
