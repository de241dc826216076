package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers/mock"
)

// scriptConn feeds a fixed sequence of inbound messages and records every
// outbound envelope. An exhausted script behaves like a client disconnect.
type scriptConn struct {
	mu     sync.Mutex
	queue  [][]byte
	sent   []Envelope
	audio  int
	closed bool
}

func newScriptConn(messages ...[]byte) *scriptConn {
	return &scriptConn{queue: messages}
}

func (c *scriptConn) Receive(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, errors.New("client disconnected")
	}
	msg := c.queue[0]
	c.queue = c.queue[1:]
	return msg, nil
}

func (c *scriptConn) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, env)
	return nil
}

func (c *scriptConn) SendAudio(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio++
	return nil
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptConn) envelopes() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *scriptConn) countType(kind string) int {
	n := 0
	for _, env := range c.envelopes() {
		if env.Type == kind {
			n++
		}
	}
	return n
}

func (c *scriptConn) firstOfType(kind string) (Envelope, bool) {
	for _, env := range c.envelopes() {
		if env.Type == kind {
			return env, true
		}
	}
	return Envelope{}, false
}

type captureSink struct {
	mu       sync.Mutex
	payloads []ReportPayload
}

func (s *captureSink) Publish(ctx context.Context, p ReportPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return nil
}

func sessionProfile() *interview.ResumeProfile {
	return &interview.ResumeProfile{
		Name:     "Jane Doe",
		Summary:  "Backend engineer with platform experience.",
		Skills:   []string{"Go", "Kubernetes"},
		Projects: []string{"payments platform"},
		Roles:    []string{"Staff Engineer"},
	}
}

var speechBytes = bytes.Repeat([]byte{0x01}, 2000)

func startMessage(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(InboundEnvelope{
		Type:          EnvStart,
		Role:          "Backend Engineer",
		Level:         "senior",
		CandidateName: "Jane",
		Resume:        sessionProfile(),
	})
	if err != nil {
		t.Fatalf("marshal start: %v", err)
	}
	return raw
}

func answerMessage(t *testing.T, audio []byte) []byte {
	t.Helper()
	raw, err := json.Marshal(InboundEnvelope{
		Type:     EnvAnswer,
		Audio:    base64.StdEncoding.EncodeToString(audio),
		MimeType: "audio/webm",
	})
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return raw
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// steppedClock returns the base time on the first call and base+offset on
// every later call, so the session starts at base and every elapsed check
// sees the offset.
func steppedClock(base time.Time, offset time.Duration) func() time.Time {
	var calls int32
	return func() time.Time {
		if atomic.AddInt32(&calls, 1) == 1 {
			return base
		}
		return base.Add(offset)
	}
}

func decision(score int, kind interview.QuestionKind, next string) reasoner.TurnDecision {
	return reasoner.TurnDecision{
		NextQuestion: next,
		AnswerScore:  score,
		Rationale:    "scripted",
		QuestionType: string(kind),
	}
}

func TestConsentDeniedCancelsWithReport(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{Consent: reasoner.ConsentDenied})
	sink := &captureSink{}
	o := New("s1", conn, mock.NewTranscriber(mock.STTConfig{Transcripts: []string{"no thanks"}}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, sink, Config{}, quietLogger())

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("denied consent must end cleanly, got %v", err)
	}

	if brain.Turns() != 0 {
		t.Fatalf("no reasoning turn may run after denied consent, got %d", brain.Turns())
	}
	report, ok := conn.firstOfType(EnvJSONReport)
	if !ok {
		t.Fatalf("no terminal report emitted")
	}
	if report.Report.Status != interview.StatusCanceled {
		t.Fatalf("expected canceled status, got %q", report.Report.Status)
	}
	want := interview.Evaluation{Recommendation: interview.RecommendReject}
	if report.Report.Evaluation != want {
		t.Fatalf("canceled report must be all-zero reject, got %+v", report.Report.Evaluation)
	}
	if _, ok := conn.firstOfType(EnvDone); !ok {
		t.Fatalf("done marker missing")
	}
	if len(sink.payloads) != 1 {
		t.Fatalf("canceled report must still reach the sink, got %d deliveries", len(sink.payloads))
	}
	if !conn.closed {
		t.Fatalf("connection not closed after terminal report")
	}
}

func strongSessionFixtures(t *testing.T) (*scriptConn, *mock.Reasoner, *captureSink, *Orchestrator) {
	t.Helper()
	messages := [][]byte{startMessage(t), answerMessage(t, speechBytes)}
	for i := 0; i < 6; i++ {
		messages = append(messages, answerMessage(t, speechBytes))
	}
	conn := newScriptConn(messages...)
	brain := mock.NewReasoner(mock.ReasonerConfig{Decisions: []reasoner.TurnDecision{
		decision(4, interview.KindIntro, "Tell me about the payments platform you built."),
		decision(4, interview.KindTechnical, "How do you approach testing distributed systems?"),
		decision(4, interview.KindTechnical, "Describe a production incident you handled."),
		decision(4, interview.KindTechnical, "What tradeoffs did you weigh when choosing Kubernetes?"),
		decision(4, interview.KindTechnical, "Tell me about a disagreement with a teammate."),
		decision(4, interview.KindBehavioral, ""),
	}})
	sink := &captureSink{}
	cfg := Config{Now: steppedClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 16*time.Minute)}
	o := New("s2", conn,
		mock.NewTranscriber(mock.STTConfig{Transcripts: []string{"yes, let us start", "I led the migration of our payment services over six months."}}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, sink, cfg, quietLogger())
	return conn, brain, sink, o
}

func TestStrongCandidateEndsAfterMinimum(t *testing.T) {
	conn, brain, sink, o := strongSessionFixtures(t)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("session should finish with a report, got %v", err)
	}

	if brain.Turns() != 6 {
		t.Fatalf("expected 6 reasoning turns, got %d", brain.Turns())
	}
	report, ok := conn.firstOfType(EnvJSONReport)
	if !ok {
		t.Fatalf("no terminal report emitted")
	}
	if report.Report.Status != interview.StatusCompleted {
		t.Fatalf("expected completed status, got %q", report.Report.Status)
	}
	if got := report.Report.Evaluation.Recommendation; got != interview.RecommendMoveForward {
		t.Fatalf("consistent high scores must recommend move_forward, got %q", got)
	}
	if len(report.Report.Questions) != 6 {
		t.Fatalf("expected 6 question pairs in the report, got %d", len(report.Report.Questions))
	}
	if _, ok := conn.firstOfType(EnvDone); !ok {
		t.Fatalf("done marker missing")
	}
	if len(sink.payloads) != 1 {
		t.Fatalf("expected one sink delivery, got %d", len(sink.payloads))
	}
	if got := sink.payloads[0].DurationSeconds; got != 960 {
		t.Fatalf("expected 960s duration in the sink payload, got %d", got)
	}
}

func TestHardCeilingEndsRegardlessOfSignal(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{})
	cfg := Config{Now: steppedClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 20*time.Minute)}
	o := New("s3", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, nil, cfg, quietLogger())

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("ceiling ending should be clean, got %v", err)
	}
	if brain.Turns() != 1 {
		t.Fatalf("session past the ceiling must end on the first turn, got %d turns", brain.Turns())
	}
	report, ok := conn.firstOfType(EnvJSONReport)
	if !ok {
		t.Fatalf("no terminal report emitted")
	}
	if report.Report.Status != interview.StatusCompleted {
		t.Fatalf("expected completed status, got %q", report.Report.Status)
	}
}

func TestClarificationCapSurfacesToReasoner(t *testing.T) {
	messages := [][]byte{startMessage(t), answerMessage(t, speechBytes)}
	for i := 0; i < 4; i++ {
		messages = append(messages, answerMessage(t, speechBytes))
	}
	conn := newScriptConn(messages...)
	// Both clarification prompts share their first 40 characters, so they map
	// to the same clarification topic without tripping the repetition guard.
	brain := mock.NewReasoner(mock.ReasonerConfig{Decisions: []reasoner.TurnDecision{
		decision(1, interview.KindClarification, "Could you give a concrete example from your last role?"),
		decision(1, interview.KindClarification, "Could you give a concrete example from your most recent team project instead?"),
		decision(1, interview.KindClarification, "Tell me about your experience with Kubernetes."),
		decision(4, interview.KindTechnical, "How do you approach testing?"),
	}})
	o := New("s4", conn,
		mock.NewTranscriber(mock.STTConfig{Transcripts: []string{"yes", "ok"}}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, nil, Config{}, quietLogger())

	if err := o.Run(context.Background()); err == nil {
		t.Fatalf("exhausted script should surface as a disconnect")
	}

	contexts := brain.Contexts()
	if len(contexts) != 4 {
		t.Fatalf("expected 4 reasoning calls, got %d", len(contexts))
	}
	for i := 0; i < 3; i++ {
		if contexts[i].ForceNewTopic {
			t.Fatalf("topic change forced before the clarification cap, at call %d", i+1)
		}
	}
	if !contexts[3].ForceNewTopic {
		t.Fatalf("clarification cap did not force a topic change")
	}
	if !strings.Contains(contexts[3].FollowupInstruction, "UNCOVERED") {
		t.Fatalf("forced topic change carries no coverage instruction: %q", contexts[3].FollowupInstruction)
	}
}

func TestReasonerFailureKeepsSessionAlive(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{TurnErr: errors.New("model unavailable")})
	o := New("s5", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, nil, Config{}, quietLogger())

	if err := o.Run(context.Background()); err == nil {
		t.Fatalf("exhausted script should surface as a disconnect")
	}

	turn, ok := conn.firstOfType(EnvTurnResult)
	if !ok {
		t.Fatalf("no turn result after degraded reasoning")
	}
	if turn.Turn.Score != 3 {
		t.Fatalf("degraded turn must score neutral, got %d", turn.Turn.Score)
	}
	found := false
	for _, env := range conn.envelopes() {
		if env.Type == EnvQuestionText && env.Text == reasoner.DefaultNextQuestion {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback question not emitted after reasoning failure")
	}
	if _, ok := conn.firstOfType(EnvDone); ok {
		t.Fatalf("session must not terminate on a reasoning failure")
	}
}

func TestUndersizedAudioRejected(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
		answerMessage(t, bytes.Repeat([]byte{0x01}, 100)),
	)
	stt := mock.NewTranscriber(mock.STTConfig{Transcripts: []string{"yes"}})
	o := New("s6", conn, stt, mock.NewSynthesizer(mock.TTSConfig{}),
		mock.NewReasoner(mock.ReasonerConfig{}), nil, Config{}, quietLogger())

	_ = o.Run(context.Background())

	if stt.Calls() != 1 {
		t.Fatalf("undersized audio must not reach transcription, got %d calls", stt.Calls())
	}
	envs := conn.envelopes()
	rejected := -1
	for i, env := range envs {
		if env.Type == EnvError && strings.Contains(env.Text, "audio too short") {
			rejected = i
			break
		}
	}
	if rejected < 0 {
		t.Fatalf("no rejection envelope for undersized audio")
	}
	ready := false
	for _, env := range envs[rejected+1:] {
		if env.Type == EnvReadyToListen {
			ready = true
			break
		}
	}
	if !ready {
		t.Fatalf("rejection must be followed by a ready signal so the candidate keeps the floor")
	}
}

func TestMalformedMessagesAreSkipped(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		[]byte("{not json"),
		startMessage(t),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{Consent: reasoner.ConsentDenied})
	o := New("s7", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, nil, Config{}, quietLogger())

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("malformed interleaved messages must not kill the session, got %v", err)
	}
	if conn.countType(EnvError) < 2 {
		t.Fatalf("expected error envelopes for the malformed and mistyped messages")
	}
	if _, ok := conn.firstOfType(EnvJSONReport); !ok {
		t.Fatalf("session did not reach its terminal report")
	}
}

func TestStartValidation(t *testing.T) {
	conn := newScriptConn(answerMessage(t, speechBytes))
	o := New("s8", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), mock.NewReasoner(mock.ReasonerConfig{}), nil, Config{}, quietLogger())
	if err := o.Run(context.Background()); err == nil {
		t.Fatalf("non-start first message must fail the session")
	}
	if env, ok := conn.firstOfType(EnvError); !ok || !strings.Contains(env.Text, "start") {
		t.Fatalf("missing typed error for invalid start, got %+v", env)
	}

	noResume, _ := json.Marshal(InboundEnvelope{Type: EnvStart, Role: "Backend Engineer"})
	conn = newScriptConn(noResume)
	o = New("s9", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), mock.NewReasoner(mock.ReasonerConfig{}), nil, Config{}, quietLogger())
	if err := o.Run(context.Background()); err == nil {
		t.Fatalf("start without a resume profile must fail the session")
	}
}

func TestReadySignalPerUtterance(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{Consent: reasoner.ConsentDenied})
	o := New("s10", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{}), brain, nil, Config{}, quietLogger())

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One greeting and one closing summary were spoken; each utterance must
	// produce exactly one ready signal.
	if got := conn.countType(EnvReadyToListen); got != 2 {
		t.Fatalf("expected 2 ready signals, got %d", got)
	}
}

func TestSynthesisFailureIsNonFatal(t *testing.T) {
	conn := newScriptConn(
		startMessage(t),
		answerMessage(t, speechBytes),
	)
	brain := mock.NewReasoner(mock.ReasonerConfig{Consent: reasoner.ConsentDenied})
	o := New("s11", conn, mock.NewTranscriber(mock.STTConfig{}),
		mock.NewSynthesizer(mock.TTSConfig{Err: errors.New("voice service down")}), brain, nil, Config{}, quietLogger())

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("synthesis failure must not fail the session, got %v", err)
	}
	if conn.countType(EnvTTSError) == 0 {
		t.Fatalf("no tts_error envelope after failed synthesis")
	}
	if got := conn.countType(EnvReadyToListen); got != 2 {
		t.Fatalf("ready signal must still fire on synthesis failure, got %d", got)
	}
	if _, ok := conn.firstOfType(EnvDone); !ok {
		t.Fatalf("session did not reach its terminal report")
	}
}

// deterministicEnvelopes drops the envelopes emitted by the background speech
// task, whose interleaving with the orchestrator loop is timing-dependent.
func deterministicEnvelopes(envs []Envelope) []Envelope {
	var out []Envelope
	for _, env := range envs {
		if env.Type == EnvReadyToListen || env.Type == EnvTTSError {
			continue
		}
		out = append(out, env)
	}
	return out
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() []Envelope {
		conn, _, _, o := strongSessionFixtures(t)
		if err := o.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return deterministicEnvelopes(conn.envelopes())
	}

	first, second := run(), run()
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("replaying the same inputs produced different envelope sequences:\n%s\n%s", a, b)
	}
}
