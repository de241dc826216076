package interview

import (
	"testing"
)

func testProfile() *ResumeProfile {
	return &ResumeProfile{
		Name:            "Jane Doe",
		Summary:         "Backend engineer with platform experience.",
		Skills:          []string{"Go", "Kubernetes"},
		Projects:        []string{"payments platform"},
		Roles:           []string{"Staff Engineer"},
		Tools:           []string{"Terraform"},
		ExperienceYears: 8,
	}
}

func newTestState() *SessionState {
	return NewSessionState("Backend Engineer", "senior", "Jane", testProfile(), FlowConfig{})
}

const goodAnswer = "I led the migration of our payment services to a new platform over six months."

func TestHistoryMatchesQuestionCount(t *testing.T) {
	s := newTestState()
	if len(s.History) != 0 || s.QuestionCount != 0 {
		t.Fatalf("fresh state must have empty history and zero count, got %d/%d", len(s.History), s.QuestionCount)
	}
	s.ApplyTurn("Please introduce yourself.", goodAnswer, 4, KindIntro)
	s.ApplyTurn("Tell me about Go.", goodAnswer, 4, KindTechnical)
	s.ApplyTurn("How did you scale it?", goodAnswer, 3, KindFollowup)
	if len(s.History) != s.QuestionCount {
		t.Fatalf("history length %d != question count %d", len(s.History), s.QuestionCount)
	}
	if s.QuestionCount != 3 {
		t.Fatalf("expected 3 questions, got %d", s.QuestionCount)
	}
}

func TestIntroAndBehavioralFlagsResetTopic(t *testing.T) {
	s := newTestState()
	s.ApplyTurn("How did you design it?", goodAnswer, 4, KindFollowup)
	if s.CurrentTopic == "" || s.FollowupCount != 1 {
		t.Fatalf("followup should seed topic tracking, got topic=%q count=%d", s.CurrentTopic, s.FollowupCount)
	}
	s.ApplyTurn("Tell me about a conflict you resolved.", goodAnswer, 4, KindBehavioral)
	if !s.HasAskedBehavioral {
		t.Fatalf("behavioral flag not set")
	}
	if s.CurrentTopic != "" || s.FollowupCount != 0 {
		t.Fatalf("non-followup kind must reset topic tracking, got topic=%q count=%d", s.CurrentTopic, s.FollowupCount)
	}
	s.ApplyTurn("Please introduce yourself.", goodAnswer, 4, KindIntro)
	if !s.HasAskedIntro {
		t.Fatalf("intro flag not set")
	}
}

func TestFollowupCountIncreasesUntilCap(t *testing.T) {
	s := newTestState()
	prev := 0
	for i := 0; i < s.Flow().FollowupCap-1; i++ {
		s.ApplyTurn("How did you design the system?", goodAnswer, 4, KindFollowup)
		if s.FollowupCount <= prev {
			t.Fatalf("followup count must strictly increase, got %d after %d", s.FollowupCount, prev)
		}
		if s.ForceNewTopic {
			t.Fatalf("topic change forced before the cap at count %d", s.FollowupCount)
		}
		prev = s.FollowupCount
	}
	s.ApplyTurn("How did you design the system?", goodAnswer, 4, KindFollowup)
	if !s.ForceNewTopic {
		t.Fatalf("expected forced topic change at the followup cap")
	}
	if s.FollowupCount != 0 {
		t.Fatalf("followup count must reset at the cap, got %d", s.FollowupCount)
	}
}

func TestClarificationCapForcesTopicChange(t *testing.T) {
	s := newTestState()
	asked := "What did you do at your last job?"

	s.ApplyTurn(asked, "ok", 1, KindClarification)
	if s.ClarificationDepth != 1 {
		t.Fatalf("first low-signal answer should start depth at 1, got %d", s.ClarificationDepth)
	}
	if s.ForceNewTopic {
		t.Fatalf("topic change forced before the clarification cap")
	}

	s.ApplyTurn(asked, "yes", 1, KindClarification)
	if !s.ForceNewTopic {
		t.Fatalf("expected forced topic change after %d clarifications", s.Flow().ClarificationCap)
	}
	if s.ClarificationDepth != 0 || s.LastClarificationTopic != "" {
		t.Fatalf("clarification tracking must reset after the cap, got depth=%d topic=%q",
			s.ClarificationDepth, s.LastClarificationTopic)
	}
}

func TestClarificationDepthNeverExceedsCap(t *testing.T) {
	s := newTestState()
	asked := "Tell me about Kubernetes."
	for i := 0; i < 6; i++ {
		s.ApplyTurn(asked, "thanks", 1, KindClarification)
		if s.ClarificationDepth >= s.Flow().ClarificationCap {
			t.Fatalf("depth %d reached the cap without a reset", s.ClarificationDepth)
		}
	}
}

func TestClarificationResetsOnGoodScore(t *testing.T) {
	s := newTestState()
	s.ApplyTurn("What is your experience with Go?", "ok", 1, KindClarification)
	if s.ClarificationDepth != 1 {
		t.Fatalf("expected depth 1, got %d", s.ClarificationDepth)
	}
	s.ApplyTurn("What is your experience with Go?", goodAnswer, 4, KindTechnical)
	if s.ClarificationDepth != 0 || s.LastClarificationTopic != "" {
		t.Fatalf("good score must reset clarification tracking, got depth=%d topic=%q",
			s.ClarificationDepth, s.LastClarificationTopic)
	}
}

func TestCoverageMatching(t *testing.T) {
	s := newTestState()
	s.ApplyTurn("Tell me about your Go experience.", "I built the payments platform in Go.", 4, KindTechnical)

	if !s.TopicCovered("Go") {
		t.Fatalf("Go should be covered via the asked question")
	}
	if !s.TopicCovered("payments platform") {
		t.Fatalf("project should be covered via the transcript")
	}
	if !s.CoveredDimension[DimSkills] || !s.CoveredDimension[DimCommunication] {
		t.Fatalf("technical turn must cover skills and communication")
	}
	if !s.CoveredDimension[DimProjects] || !s.CoveredDimension[DimImpact] {
		t.Fatalf("project match must cover projects and impact")
	}
	if s.CoveredDimension[DimProblemSolving] {
		t.Fatalf("problem_solving should not be covered by a technical turn")
	}

	for _, tc := range s.UncoveredTopics() {
		if tc.Topic == "Go" || tc.Topic == "payments platform" {
			t.Fatalf("covered topic %q still listed as uncovered", tc.Topic)
		}
	}
}

func TestStruggleStreak(t *testing.T) {
	s := newTestState()
	s.ApplyTurn("Q1", "ok", 1, KindTechnical)
	s.ApplyTurn("Q2", "yes", 2, KindTechnical)
	if s.StruggleStreak != 2 {
		t.Fatalf("expected streak 2, got %d", s.StruggleStreak)
	}
	s.ApplyTurn("Q3", goodAnswer, 4, KindTechnical)
	if s.StruggleStreak != 0 {
		t.Fatalf("good score must reset the streak, got %d", s.StruggleStreak)
	}
}

func TestScoresClampedOnInsert(t *testing.T) {
	s := newTestState()
	s.ApplyTurn("Q1", goodAnswer, 9, KindTechnical)
	s.ApplyTurn("Q2", goodAnswer, 0, KindTechnical)
	s.ApplyTurn("Q3", goodAnswer, -2, KindTechnical)
	got := []int{s.History[0].Score, s.History[1].Score, s.History[2].Score}
	want := []int{5, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: expected score %d, got %d", i, want[i], got[i])
		}
	}
}
