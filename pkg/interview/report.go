package interview

import "math"

// Recommendation values of the final evaluation.
const (
	RecommendMoveForward = "move_forward"
	RecommendHold        = "hold"
	RecommendReject      = "reject"
)

// Evaluation status values.
const (
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// QA is one question/answer pair of the final report.
type QA struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Evaluation carries the four scored dimensions and the derived
// recommendation.
type Evaluation struct {
	Communication  int    `json:"communication"`
	Technical      int    `json:"technical"`
	ProblemSolving int    `json:"problem_solving"`
	CultureFit     int    `json:"culture_fit"`
	Recommendation string `json:"recommendation"`
}

// FinalEvaluation is the terminal report of an interview session.
type FinalEvaluation struct {
	Status        string     `json:"status"`
	ResumeSummary string     `json:"resume_summary"`
	Questions     []QA       `json:"questions"`
	Evaluation    Evaluation `json:"evaluation"`
}

// RecommendationFor derives the recommendation from the mean of the four
// dimension scores.
func RecommendationFor(e Evaluation) string {
	mean := float64(e.Communication+e.Technical+e.ProblemSolving+e.CultureFit) / 4
	switch {
	case mean >= 4:
		return RecommendMoveForward
	case mean >= 3:
		return RecommendHold
	default:
		return RecommendReject
	}
}

// BuildFinalEvaluation aggregates the session history into a completed
// report. Used when the reasoning gateway did not supply one directly.
func BuildFinalEvaluation(s *SessionState, resumeSummary string) FinalEvaluation {
	report := FinalEvaluation{
		Status:        StatusCompleted,
		ResumeSummary: resumeSummary,
		Questions:     make([]QA, 0, len(s.History)),
	}
	for _, turn := range s.History {
		report.Questions = append(report.Questions, QA{Q: turn.Question, A: turn.Answer})
	}

	if len(s.History) == 0 {
		report.Evaluation.Recommendation = RecommendReject
		return report
	}

	overall := s.AverageScore()
	eval := Evaluation{
		Communication:  s.History[len(s.History)-1].Score,
		Technical:      roundOr(meanScore(s.History, KindTechnical, KindFollowup), overall),
		ProblemSolving: roundOr(meanScore(s.History, KindBehavioral, KindFollowup), overall),
		CultureFit:     roundOr(meanScore(s.History, KindBehavioral), overall),
	}
	eval.Recommendation = RecommendationFor(eval)
	report.Evaluation = eval
	return report
}

// CanceledEvaluation is the terminal report for a denied consent gate: all
// dimensions zero and a reject recommendation.
func CanceledEvaluation(resumeSummary string) FinalEvaluation {
	return FinalEvaluation{
		Status:        StatusCanceled,
		ResumeSummary: resumeSummary,
		Questions:     []QA{},
		Evaluation:    Evaluation{Recommendation: RecommendReject},
	}
}

// NormalizeFinalEvaluation fills gaps in a gateway-supplied report so a
// structurally valid document always reaches the client.
func NormalizeFinalEvaluation(report FinalEvaluation, s *SessionState, resumeSummary string) FinalEvaluation {
	if report.Status != StatusCanceled {
		report.Status = StatusCompleted
	}
	if report.ResumeSummary == "" {
		report.ResumeSummary = resumeSummary
	}
	if len(report.Questions) == 0 {
		for _, turn := range s.History {
			report.Questions = append(report.Questions, QA{Q: turn.Question, A: turn.Answer})
		}
	}
	empty := Evaluation{}
	if report.Evaluation == empty {
		report.Evaluation = BuildFinalEvaluation(s, resumeSummary).Evaluation
	}
	if report.Evaluation.Recommendation == "" {
		report.Evaluation.Recommendation = RecommendationFor(report.Evaluation)
	}
	return report
}

// meanScore averages scores over turns of the given kinds; -1 when no turn
// matches.
func meanScore(history []TurnRecord, kinds ...QuestionKind) float64 {
	sum, n := 0, 0
	for _, turn := range history {
		for _, kind := range kinds {
			if turn.Kind == kind {
				sum += turn.Score
				n++
				break
			}
		}
	}
	if n == 0 {
		return -1
	}
	return float64(sum) / float64(n)
}

func roundOr(value, fallback float64) int {
	if value < 0 {
		value = fallback
	}
	return int(math.Round(value))
}
