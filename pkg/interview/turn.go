package interview

import "strings"

// QuestionKind tags a turn with the kind of question that was asked.
type QuestionKind string

const (
	KindIntro         QuestionKind = "intro"
	KindTechnical     QuestionKind = "technical"
	KindBehavioral    QuestionKind = "behavioral"
	KindFollowup      QuestionKind = "followup"
	KindClarification QuestionKind = "clarification"
)

// ParseQuestionKind normalizes a free-form kind string from the reasoning
// gateway. Unknown or empty values default to technical.
func ParseQuestionKind(raw string) QuestionKind {
	switch QuestionKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindIntro:
		return KindIntro
	case KindBehavioral:
		return KindBehavioral
	case KindFollowup:
		return KindFollowup
	case KindClarification:
		return KindClarification
	default:
		return KindTechnical
	}
}

// TurnRecord is one completed question/answer exchange. Records are immutable
// once appended and their insertion order is chronological.
type TurnRecord struct {
	Question string       `json:"q"`
	Answer   string       `json:"a"`
	Score    int          `json:"score"`
	Kind     QuestionKind `json:"kind"`
}

// ClampScore forces a gateway-provided score into the valid 1..5 range.
// Zero or missing values default to 3.
func ClampScore(score int) int {
	if score == 0 {
		return 3
	}
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}
