package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/reasoner"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/stt"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/tts"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/redact"
)

const (
	defaultMinAudioBytes = 1000
	defaultReadyTimeout  = 30 * time.Second
	reportPostTimeout    = 10 * time.Second

	introQuestion = "Please introduce yourself focusing on your relevant experience."

	defaultGreeting = "Hi, I am Saj from SA Technologies. I will ask you some questions based on your profile. Shall we start?"

	consentRetryPrompt = "Sorry, I did not catch that. Shall we start the interview? Please answer yes or no."
)

// Config holds the per-session tunables of the orchestrator.
type Config struct {
	Flow   interview.FlowConfig
	Ending interview.EndingConfig

	// MinAudioBytes rejects answer payloads below this size as non-speech
	// before transcription is attempted.
	MinAudioBytes int
	// ReadyTimeout bounds how long after question emission the ready signal
	// may lag behind a stalled synthesis stream.
	ReadyTimeout time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MinAudioBytes <= 0 {
		c.MinAudioBytes = defaultMinAudioBytes
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.Ending.MaxElapsed == 0 {
		c.Ending = interview.DefaultEndingConfig()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Orchestrator drives one interview session from connection accept to
// terminal report. It is the sole owner of the session state and the
// transport connection for the session's lifetime.
type Orchestrator struct {
	id     string
	conn   Conn
	stt    stt.Transcriber
	tts    tts.Synthesizer
	brain  reasoner.Reasoner
	sink   ReportSink
	cfg    Config
	logger *slog.Logger

	state  *interview.SessionState
	speech *speechTask
}

// New wires an orchestrator for one accepted connection. sink may be nil when
// no external report endpoint is configured.
func New(id string, conn Conn, transcriber stt.Transcriber, synthesizer tts.Synthesizer, brain reasoner.Reasoner, sink ReportSink, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		id:     id,
		conn:   conn,
		stt:    transcriber,
		tts:    synthesizer,
		brain:  brain,
		sink:   sink,
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "orchestrator"), slog.String("session_id", id)),
	}
	o.speech = newSpeechTask(o)
	return o
}

// Run executes the session protocol until a terminal report is emitted or
// the transport disconnects. A disconnect aborts the session without a
// report; any other unexpected fault is converted to a terminal error
// envelope rather than a silent hang.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	defer o.conn.Close()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("session_panic", slog.Any("panic", r))
			_ = o.conn.Send(Envelope{Type: EnvError, Text: "internal error, session terminated"})
			err = fmt.Errorf("session panic: %v", r)
		}
	}()

	if err := o.awaitStart(ctx); err != nil {
		return err
	}
	granted, err := o.consentGate(ctx)
	if err != nil {
		return err
	}
	if !granted {
		return nil
	}
	return o.interviewLoop(ctx)
}

// awaitStart blocks for the start envelope and creates the session state.
// An invalid start payload terminates the session with a typed error and no
// state created.
func (o *Orchestrator) awaitStart(ctx context.Context) error {
	raw, err := o.conn.Receive(ctx)
	if err != nil {
		return err
	}
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != EnvStart {
		_ = o.conn.Send(Envelope{Type: EnvError, Text: "expected a start message"})
		return errors.New("invalid start envelope")
	}
	if env.Resume == nil {
		_ = o.conn.Send(Envelope{Type: EnvError, Text: "start message carries no resume profile"})
		return errors.New("start without resume profile")
	}

	o.state = interview.NewSessionState(env.Role, env.Level, env.CandidateName, env.Resume, o.cfg.Flow)
	now := o.cfg.Now()
	o.state.StartedAt = now
	o.state.StartedWall = now

	o.logger.Info("session_started",
		slog.String("role", env.Role),
		slog.String("level", env.Level),
		slog.String("candidate", env.CandidateName))

	_ = o.conn.Send(Envelope{Type: EnvResumeSummary, Text: env.Resume.Summary})
	return nil
}

// consentGate greets the candidate and loops on the consent exchange until
// intent is granted or denied. The exchange is never appended to history.
// Returns false when the session ended inside the gate (denied consent).
func (o *Orchestrator) consentGate(ctx context.Context) (bool, error) {
	greeting, err := o.brain.Greeting(ctx, o.state.CandidateName)
	if err != nil || strings.TrimSpace(greeting) == "" {
		if err != nil {
			o.logger.Warn("greeting_fallback", slog.String("error", err.Error()))
		}
		greeting = defaultGreeting
	}
	o.emitQuestion(ctx, greeting)

	question := greeting
	for {
		audio, mime, err := o.nextAnswer(ctx)
		if err != nil {
			return false, err
		}
		transcript, terr := o.stt.Transcribe(ctx, audio, mime, question)
		if terr != nil {
			o.logger.Warn("consent_transcription_failed", slog.String("error", terr.Error()))
		}

		verdict, cerr := o.brain.InterpretConsent(ctx, question, transcript)
		if cerr != nil {
			o.logger.Warn("consent_interpret_degraded", slog.String("error", cerr.Error()))
		}
		o.logger.Info("consent_interpreted",
			slog.String("verdict", string(verdict)),
			slog.String("transcript", redact.Text(transcript)))

		switch verdict {
		case reasoner.ConsentDenied:
			report := interview.CanceledEvaluation(o.state.Profile.Summary)
			o.finish(ctx, report, "No problem, we will not proceed with the interview. Thank you for your time.")
			return false, nil
		case reasoner.ConsentGranted:
			o.state.ConsentGiven = true
			o.emitQuestion(ctx, introQuestion)
			return true, nil
		default:
			o.emitQuestion(ctx, consentRetryPrompt)
			question = consentRetryPrompt
		}
	}
}

// interviewLoop runs the AwaitAnswer cycle: receive, transcribe in parallel
// with context preparation, reason, mutate state, apply the ending policy,
// then either terminate or emit the next question.
func (o *Orchestrator) interviewLoop(ctx context.Context) error {
	current := introQuestion
	for {
		audio, mime, err := o.nextAnswer(ctx)
		if err != nil {
			return err
		}

		// Transcription and reasoning-context preparation start together; the
		// context depends only on committed state so it never waits on audio.
		type sttOutcome struct {
			text string
			err  error
		}
		sttCh := make(chan sttOutcome, 1)
		go func() {
			text, err := o.stt.Transcribe(ctx, audio, mime, current)
			sttCh <- sttOutcome{text: text, err: err}
		}()
		turnCtx := interview.BuildTurnContext(o.state, current, o.cfg.Now(), o.cfg.Ending.MinElapsed, o.cfg.Ending.MaxElapsed)

		outcome := <-sttCh
		transcript := outcome.text
		if outcome.err != nil {
			// A failed transcription is forwarded as a low-information answer
			// so the clarification policy can react.
			o.logger.Warn("transcription_degraded", slog.String("error", outcome.err.Error()))
			transcript = ""
		}

		decision, derr := o.brain.NextTurn(ctx, turnCtx, transcript)
		if derr != nil {
			o.logger.Warn("reasoning_degraded", slog.String("error", derr.Error()))
		}
		decision = decision.Normalized()
		kind := decision.Kind()

		o.state.ApplyTurn(current, transcript, decision.AnswerScore, kind)
		o.logger.Info("turn_committed",
			slog.Int("question_count", o.state.QuestionCount),
			slog.Int("score", decision.AnswerScore),
			slog.String("kind", string(kind)),
			slog.String("transcript", redact.Text(transcript)))

		_ = o.conn.Send(Envelope{Type: EnvTurnResult, Turn: &TurnResult{
			Transcript: transcript,
			Score:      decision.AnswerScore,
			Rationale:  decision.Rationale,
			RedFlags:   decision.RedFlags,
			End:        decision.EndRequested,
		}})

		elapsed := o.state.Elapsed(o.cfg.Now())
		verdict := interview.ShouldEnd(o.state, decision.EndRequested, elapsed, o.cfg.Ending)
		if decision.EndRequested && !verdict.End {
			o.logger.Info("end_request_ignored", slog.Duration("elapsed", elapsed))
		}
		if verdict.End {
			o.logger.Info("interview_ending",
				slog.String("reason", verdict.Reason),
				slog.Duration("elapsed", elapsed))
			report := o.buildReport(decision)
			o.finish(ctx, report, decision.FinalSummary)
			return nil
		}

		next := decision.NextQuestion
		if interview.IsDuplicateQuestion(next, o.state.History) {
			o.logger.Info("duplicate_question_replaced", slog.String("question", next))
			next = interview.FallbackFollowup(transcript)
		}
		current = next
		o.emitQuestion(ctx, next)
	}
}

// nextAnswer blocks for the next answer envelope and decodes its audio.
// Undersized payloads are rejected as non-speech without leaving the receive
// loop; the candidate keeps the floor.
func (o *Orchestrator) nextAnswer(ctx context.Context) ([]byte, string, error) {
	for {
		raw, err := o.conn.Receive(ctx)
		if err != nil {
			return nil, "", err
		}
		var env InboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			_ = o.conn.Send(Envelope{Type: EnvError, Text: "malformed message"})
			continue
		}
		if env.Type != EnvAnswer {
			_ = o.conn.Send(Envelope{Type: EnvError, Text: "expected an answer message"})
			continue
		}
		audio, err := base64.StdEncoding.DecodeString(env.Audio)
		if err != nil {
			_ = o.conn.Send(Envelope{Type: EnvError, Text: "audio payload is not valid base64"})
			_ = o.conn.Send(Envelope{Type: EnvReadyToListen})
			continue
		}
		if len(audio) < o.cfg.MinAudioBytes {
			o.logger.Info("audio_rejected_as_non_speech", slog.Int("bytes", len(audio)))
			_ = o.conn.Send(Envelope{Type: EnvError, Text: "audio too short to contain speech, please try again"})
			_ = o.conn.Send(Envelope{Type: EnvReadyToListen})
			continue
		}
		return audio, env.MimeType, nil
	}
}

// emitQuestion sends the question text immediately and starts synthesis in
// the background, so perceived latency is dominated by reasoning, not speech
// generation.
func (o *Orchestrator) emitQuestion(ctx context.Context, text string) {
	_ = o.conn.Send(Envelope{Type: EnvQuestionText, Text: text})
	o.speech.speak(ctx, text)
}

func (o *Orchestrator) buildReport(decision reasoner.TurnDecision) interview.FinalEvaluation {
	summary := o.state.Profile.Summary
	if decision.FinalReport != nil {
		return interview.NormalizeFinalEvaluation(*decision.FinalReport, o.state, summary)
	}
	return interview.BuildFinalEvaluation(o.state, summary)
}

// finish is the one-shot terminal step: closing summary, structured report,
// done marker, best-effort external delivery.
func (o *Orchestrator) finish(ctx context.Context, report interview.FinalEvaluation, summary string) {
	if strings.TrimSpace(summary) == "" {
		summary = closingSummary(report)
	}
	_ = o.conn.Send(Envelope{Type: EnvSummary, Text: summary})
	o.speech.speak(ctx, summary)
	o.speech.wait()

	_ = o.conn.Send(Envelope{Type: EnvJSONReport, Report: &report})
	_ = o.conn.Send(Envelope{Type: EnvDone})
	o.publishReport(ctx, report)

	o.logger.Info("session_finished",
		slog.String("status", report.Status),
		slog.String("recommendation", report.Evaluation.Recommendation),
		slog.Int("questions", len(report.Questions)))
}

func (o *Orchestrator) publishReport(ctx context.Context, report interview.FinalEvaluation) {
	if o.sink == nil {
		return
	}
	payload := ReportPayload{
		CandidateName:   o.state.CandidateName,
		InterviewDate:   o.state.StartedWall.Format(time.RFC3339),
		DurationSeconds: int(o.state.Elapsed(o.cfg.Now()).Seconds()),
		Evaluation:      report.Evaluation,
		ResumeSummary:   report.ResumeSummary,
	}
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportPostTimeout)
	defer cancel()
	if err := o.sink.Publish(postCtx, payload); err != nil {
		o.logger.Warn("report_delivery_failed", slog.String("error", err.Error()))
	}
}

func closingSummary(report interview.FinalEvaluation) string {
	if report.Status == interview.StatusCanceled {
		return "No problem, we will not proceed with the interview. Thank you for your time."
	}
	return "Thank you for your time. The interview is now complete and your responses have been recorded."
}
