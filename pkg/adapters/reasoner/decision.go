package reasoner

import (
	"encoding/json"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// DefaultNextQuestion is emitted whenever the model failed to produce one.
const DefaultNextQuestion = "Please share more about your recent work."

// TurnDecision is the structured result of one reasoning call. The JSON tags
// match the schema the model is instructed to return.
type TurnDecision struct {
	NextQuestion string                     `json:"next_question"`
	AnswerScore  int                        `json:"answer_score"`
	Rationale    string                     `json:"rationale"`
	RedFlags     []string                   `json:"red_flags"`
	QuestionType string                     `json:"question_type"`
	EndRequested bool                       `json:"end_interview"`
	FinalSummary string                     `json:"final_summary,omitempty"`
	FinalReport  *interview.FinalEvaluation `json:"final_json,omitempty"`
}

// Kind returns the normalized question kind of the decision.
func (d TurnDecision) Kind() interview.QuestionKind {
	return interview.ParseQuestionKind(d.QuestionType)
}

// Normalized applies decode-with-defaults so no missing or out-of-range field
// leaks past the gateway boundary.
func (d TurnDecision) Normalized() TurnDecision {
	if d.NextQuestion == "" {
		d.NextQuestion = DefaultNextQuestion
	}
	d.AnswerScore = interview.ClampScore(d.AnswerScore)
	if d.Rationale == "" {
		d.Rationale = "Not provided"
	}
	if d.RedFlags == nil {
		d.RedFlags = []string{}
	}
	d.QuestionType = string(d.Kind())
	return d
}

// DecodeTurnDecision parses raw model output into a valid decision. Malformed
// JSON yields the safe defaults with the decode failure noted in the
// rationale; it never returns an error.
func DecodeTurnDecision(raw []byte) TurnDecision {
	var d TurnDecision
	if err := json.Unmarshal(raw, &d); err != nil {
		return FallbackDecision("model output was not valid JSON")
	}
	return d.Normalized()
}

// FallbackDecision builds the safe fallback turn used when a reasoning call
// fails outright: a generic next question, a neutral score and the error
// noted in the rationale.
func FallbackDecision(note string) TurnDecision {
	return TurnDecision{
		NextQuestion: DefaultNextQuestion,
		AnswerScore:  3,
		Rationale:    "Reasoning unavailable: " + note,
		RedFlags:     []string{},
		QuestionType: string(interview.KindTechnical),
	}
}
