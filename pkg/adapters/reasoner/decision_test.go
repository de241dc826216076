package reasoner

import (
	"strings"
	"testing"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

func TestDecodeTurnDecisionMalformed(t *testing.T) {
	d := DecodeTurnDecision([]byte("I think the candidate did well"))
	if d.NextQuestion != DefaultNextQuestion {
		t.Fatalf("malformed output must fall back to the default question, got %q", d.NextQuestion)
	}
	if d.AnswerScore != 3 {
		t.Fatalf("malformed output must score neutral, got %d", d.AnswerScore)
	}
	if !strings.Contains(d.Rationale, "not valid JSON") {
		t.Fatalf("decode failure not noted in rationale: %q", d.Rationale)
	}
}

func TestDecodeTurnDecisionFillsDefaults(t *testing.T) {
	d := DecodeTurnDecision([]byte(`{"answer_score": 4}`))
	if d.NextQuestion != DefaultNextQuestion {
		t.Fatalf("missing question not defaulted: %q", d.NextQuestion)
	}
	if d.AnswerScore != 4 {
		t.Fatalf("valid score altered: %d", d.AnswerScore)
	}
	if d.Rationale != "Not provided" {
		t.Fatalf("missing rationale not defaulted: %q", d.Rationale)
	}
	if d.RedFlags == nil {
		t.Fatalf("red flags must decode to an empty list, not nil")
	}
	if d.QuestionType != string(interview.KindTechnical) {
		t.Fatalf("missing question type not normalized: %q", d.QuestionType)
	}
}

func TestDecodeTurnDecisionClampsScore(t *testing.T) {
	if d := DecodeTurnDecision([]byte(`{"answer_score": 11, "next_question": "Q"}`)); d.AnswerScore != 5 {
		t.Fatalf("score above range not clamped: %d", d.AnswerScore)
	}
	if d := DecodeTurnDecision([]byte(`{"answer_score": -3, "next_question": "Q"}`)); d.AnswerScore != 1 {
		t.Fatalf("score below range not clamped: %d", d.AnswerScore)
	}
	if d := DecodeTurnDecision([]byte(`{"next_question": "Q"}`)); d.AnswerScore != 3 {
		t.Fatalf("absent score must default neutral: %d", d.AnswerScore)
	}
}

func TestDecodeTurnDecisionKeepsEndRequest(t *testing.T) {
	d := DecodeTurnDecision([]byte(`{"next_question": "Q", "answer_score": 2, "end_interview": true}`))
	if !d.EndRequested {
		t.Fatalf("end request dropped during normalization")
	}
}

func TestNormalizedQuestionKind(t *testing.T) {
	d := TurnDecision{NextQuestion: "Q", AnswerScore: 3, QuestionType: "something_else"}.Normalized()
	if d.Kind() != interview.KindTechnical {
		t.Fatalf("unknown question type must normalize to technical, got %q", d.Kind())
	}
	d = TurnDecision{NextQuestion: "Q", AnswerScore: 3, QuestionType: "followup"}.Normalized()
	if d.Kind() != interview.KindFollowup {
		t.Fatalf("known question type altered, got %q", d.Kind())
	}
}

func TestFallbackDecisionIsValid(t *testing.T) {
	d := FallbackDecision("timeout")
	if d.NextQuestion == "" || d.AnswerScore != 3 || d.RedFlags == nil {
		t.Fatalf("fallback decision not structurally valid: %+v", d)
	}
	if !strings.Contains(d.Rationale, "timeout") {
		t.Fatalf("fallback note lost: %q", d.Rationale)
	}
}
