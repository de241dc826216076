package interview

import "time"

// EndingConfig holds the time anchors and signal thresholds of the ending
// policy.
type EndingConfig struct {
	MinElapsed   time.Duration
	MaxElapsed   time.Duration
	MinQuestions int

	StrongAverage    float64
	StrongHighScores int
	WeakAverage      float64
	WeakLowScores    int
}

// DefaultEndingConfig mirrors the 15–20 minute target interview window.
func DefaultEndingConfig() EndingConfig {
	return EndingConfig{
		MinElapsed:       15 * time.Minute,
		MaxElapsed:       20 * time.Minute,
		MinQuestions:     5,
		StrongAverage:    3.5,
		StrongHighScores: 2,
		WeakAverage:      2.5,
		WeakLowScores:    3,
	}
}

// EndDecision is the outcome of one ending-policy evaluation.
type EndDecision struct {
	End    bool
	Reason string
}

// ShouldEnd decides whether the interview terminates. It is a pure function
// over the session state, the gateway's end request and the elapsed time,
// evaluated in strict precedence order: hard ceiling, gated gateway request,
// strong-signal shortcut, weak-signal shortcut, continue.
func ShouldEnd(s *SessionState, gatewayRequestedEnd bool, elapsed time.Duration, cfg EndingConfig) EndDecision {
	if elapsed >= cfg.MaxElapsed {
		return EndDecision{End: true, Reason: "max_duration_reached"}
	}

	if gatewayRequestedEnd && elapsed >= cfg.MinElapsed && len(s.History) >= 1 {
		return EndDecision{End: true, Reason: "gateway_requested"}
	}

	if len(s.History) >= cfg.MinQuestions && elapsed >= cfg.MinElapsed {
		avg := s.AverageScore()
		if avg >= cfg.StrongAverage && s.HighScoreCount() >= cfg.StrongHighScores &&
			s.HasAskedIntro && s.HasAskedBehavioral {
			return EndDecision{End: true, Reason: "strong_signal"}
		}
		if avg <= cfg.WeakAverage && s.LowScoreCount() >= cfg.WeakLowScores {
			return EndDecision{End: true, Reason: "weak_signal"}
		}
	}

	return EndDecision{End: false}
}
