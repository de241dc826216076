package interview

import (
	"fmt"
	"strings"
	"time"
)

// TurnContext is the immutable context value handed to the reasoning gateway
// for one turn. It is built once per turn, regardless of which flow branch
// produced the turn, and can be prepared while transcription is still running
// because it depends only on already-committed state.
type TurnContext struct {
	Role  string
	Level string

	ResumeText     string
	HistorySummary string

	SignalQuality   string
	AverageScore    float64
	HighScoreCount  int
	LowScoreCount   int
	AvgAnswerLength float64

	HasAskedIntro      bool
	HasAskedBehavioral bool
	QuestionCount      int
	FollowupCount      int
	ForceNewTopic      bool

	CoverageContext     string
	FollowupInstruction string

	// CurrentQuestion is the question the incoming answer responds to.
	CurrentQuestion string

	Elapsed     time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

// BuildTurnContext renders the résumé, summarizes history, computes signal
// metrics and assembles the flow-control instructions for the next reasoning
// call.
func BuildTurnContext(s *SessionState, currentQuestion string, now time.Time, minDur, maxDur time.Duration) TurnContext {
	tc := TurnContext{
		Role:               s.Role,
		Level:              s.Level,
		ResumeText:         s.Profile.RenderText(),
		HasAskedIntro:      s.HasAskedIntro,
		HasAskedBehavioral: s.HasAskedBehavioral,
		QuestionCount:      s.QuestionCount,
		FollowupCount:      s.FollowupCount,
		ForceNewTopic:      s.ForceNewTopic,
		CurrentQuestion:    currentQuestion,
		Elapsed:            s.Elapsed(now),
		MinDuration:        minDur,
		MaxDuration:        maxDur,
	}

	var hist strings.Builder
	for _, turn := range s.History {
		fmt.Fprintf(&hist, "Q: %s\nA: %s\nScore: %d\n", turn.Question, turn.Answer, turn.Score)
	}
	tc.HistorySummary = hist.String()

	tc.AverageScore = s.AverageScore()
	tc.HighScoreCount = s.HighScoreCount()
	tc.LowScoreCount = s.LowScoreCount()
	tc.AvgAnswerLength = s.AverageAnswerLength()
	switch {
	case tc.AverageScore >= 4 && tc.HighScoreCount >= 2:
		tc.SignalQuality = "strong"
	case tc.AverageScore >= 3:
		tc.SignalQuality = "moderate"
	default:
		tc.SignalQuality = "weak"
	}

	if s.ForceNewTopic {
		tc.CoverageContext = buildCoverageContext(s)
		tc.FollowupInstruction = fmt.Sprintf(
			"\nCRITICAL: %d questions reached on current topic. Generate a NEW question from UNCOVERED resume topics, NOT a followup.\n%s",
			s.flow.FollowupCap, tc.CoverageContext)
	} else if s.FollowupCount >= s.flow.FollowupCap-1 {
		tc.FollowupInstruction = fmt.Sprintf(
			"\nNOTE: %d follow-ups on current topic. After %d you MUST move to a new topic from the resume.",
			s.FollowupCount, s.flow.FollowupCap)
	}

	return tc
}

func buildCoverageContext(s *SessionState) string {
	covered := s.CoveredTopics
	coveredSummary := "None"
	if len(covered) > 0 {
		shown := covered
		suffix := ""
		if len(shown) > 5 {
			shown = shown[:5]
			suffix = "..."
		}
		coveredSummary = strings.Join(shown, ", ") + suffix
	}

	uncovered := s.UncoveredTopics()
	uncoveredSummary := "None"
	if len(uncovered) > 0 {
		parts := make([]string, 0, len(uncovered))
		for _, tc := range uncovered {
			parts = append(parts, tc.Category+": "+tc.Topic)
		}
		suffix := ""
		if len(parts) > 10 {
			parts = parts[:10]
			suffix = "..."
		}
		uncoveredSummary = strings.Join(parts, ", ") + suffix
	}

	dims := s.CoveredDimension
	return fmt.Sprintf(`TOPIC COVERAGE ANALYSIS:
- Topics already covered: %s
- Topics NOT yet covered: %s
- Dimension coverage: Skills=%t, Projects=%t, Impact=%t, Problem-solving=%t

CRITICAL: Generate a NEW question from an UNCOVERED topic above. Do NOT ask about topics already covered.
Prioritize topics that fill coverage gaps in dimensions (skills, projects, impact, problem-solving).`,
		coveredSummary, uncoveredSummary,
		dims[DimSkills], dims[DimProjects], dims[DimImpact], dims[DimProblemSolving])
}
