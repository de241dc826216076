package interview

import (
	"strings"
	"time"
)

// Dimension names tracked for interview coverage.
const (
	DimSkills         = "skills"
	DimProjects       = "projects"
	DimImpact         = "impact"
	DimProblemSolving = "problem_solving"
	DimCommunication  = "communication"
)

// FlowConfig holds the tunables of the question-flow policy.
type FlowConfig struct {
	// FollowupCap is the number of consecutive follow-ups on one topic after
	// which the next turn is forced onto a new topic.
	FollowupCap int
	// ClarificationCap is the number of clarification attempts on one topic
	// after which the next turn is forced onto an uncovered résumé topic.
	ClarificationCap int
	// LowScoreMax is the highest score still considered "low".
	LowScoreMax int
	// ShortAnswerChars is the transcript length at or below which an answer
	// counts as extremely short for clarification tracking.
	ShortAnswerChars int
	// TopicKeyChars is how many leading characters of the asked question feed
	// the clarification topic key.
	TopicKeyChars int
}

func (c FlowConfig) withDefaults() FlowConfig {
	if c.FollowupCap <= 0 {
		c.FollowupCap = 4
	}
	if c.ClarificationCap <= 0 {
		c.ClarificationCap = 2
	}
	if c.LowScoreMax <= 0 {
		c.LowScoreMax = 2
	}
	if c.ShortAnswerChars <= 0 {
		c.ShortAnswerChars = 15
	}
	if c.TopicKeyChars <= 0 {
		c.TopicKeyChars = 40
	}
	return c
}

// SessionState is the single mutable record of one interview's progress.
// It is owned exclusively by one orchestrator for one transport connection;
// no locking is needed.
type SessionState struct {
	Role          string
	Level         string
	CandidateName string
	Profile       *ResumeProfile

	History []TurnRecord

	HasAskedIntro      bool
	HasAskedBehavioral bool
	ConsentGiven       bool

	QuestionCount          int
	CurrentTopic           string
	FollowupCount          int
	ClarificationDepth     int
	LastClarificationTopic string
	ForceNewTopic          bool

	coveredTopics    map[string]struct{}
	CoveredTopics    []string
	CoveredDimension map[string]bool

	StruggleStreak int

	// StartedAt carries the monotonic clock reading for elapsed-time checks;
	// StartedWall is kept separately for external reporting.
	StartedAt   time.Time
	StartedWall time.Time

	flow FlowConfig
}

// NewSessionState creates the state for a freshly accepted interview session.
func NewSessionState(role, level, candidateName string, profile *ResumeProfile, flow FlowConfig) *SessionState {
	now := time.Now()
	return &SessionState{
		Role:          role,
		Level:         level,
		CandidateName: candidateName,
		Profile:       profile,
		coveredTopics: make(map[string]struct{}),
		CoveredDimension: map[string]bool{
			DimSkills:         false,
			DimProjects:       false,
			DimImpact:         false,
			DimProblemSolving: false,
			DimCommunication:  false,
		},
		StartedAt:   now,
		StartedWall: now,
		flow:        flow.withDefaults(),
	}
}

// Flow returns the resolved flow tunables.
func (s *SessionState) Flow() FlowConfig { return s.flow }

// Elapsed returns the time since the session started.
func (s *SessionState) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// AverageScore is the mean score over all recorded turns, 0 when empty.
func (s *SessionState) AverageScore() float64 {
	if len(s.History) == 0 {
		return 0
	}
	sum := 0
	for _, turn := range s.History {
		sum += turn.Score
	}
	return float64(sum) / float64(len(s.History))
}

// HighScoreCount counts turns scoring 4 or above.
func (s *SessionState) HighScoreCount() int {
	n := 0
	for _, turn := range s.History {
		if turn.Score >= 4 {
			n++
		}
	}
	return n
}

// LowScoreCount counts turns scoring at or below the low-score threshold.
func (s *SessionState) LowScoreCount() int {
	n := 0
	for _, turn := range s.History {
		if turn.Score <= s.flow.LowScoreMax {
			n++
		}
	}
	return n
}

// AverageAnswerLength is the mean transcript length in characters.
func (s *SessionState) AverageAnswerLength() float64 {
	if len(s.History) == 0 {
		return 0
	}
	sum := 0
	for _, turn := range s.History {
		sum += len(turn.Answer)
	}
	return float64(sum) / float64(len(s.History))
}

// TopicCovered reports whether a résumé topic string has been referenced.
func (s *SessionState) TopicCovered(topic string) bool {
	_, ok := s.coveredTopics[strings.ToLower(topic)]
	return ok
}

func (s *SessionState) coverTopic(topic string) {
	key := strings.ToLower(topic)
	if _, ok := s.coveredTopics[key]; ok {
		return
	}
	s.coveredTopics[key] = struct{}{}
	s.CoveredTopics = append(s.CoveredTopics, topic)
}

// UncoveredTopics lists résumé topics not yet referenced, with category labels.
func (s *SessionState) UncoveredTopics() []TopicCategory {
	var out []TopicCategory
	for _, tc := range s.Profile.Topics() {
		if !s.TopicCovered(tc.Topic) {
			out = append(out, tc)
		}
	}
	return out
}

// clarificationKey derives the topic key used for clarification-depth
// tracking from the question kind and the head of the asked question.
func (s *SessionState) clarificationKey(kind QuestionKind, asked string) string {
	head := strings.ToLower(strings.TrimSpace(asked))
	if len(head) > s.flow.TopicKeyChars {
		head = head[:s.flow.TopicKeyChars]
	}
	return string(kind) + ":" + head
}

// ApplyTurn commits one completed exchange to the session state. The asked
// question is the one the transcript answers; score must already be clamped
// by the gateway boundary, but is clamped again defensively.
func (s *SessionState) ApplyTurn(asked, transcript string, score int, kind QuestionKind) {
	score = ClampScore(score)

	// The hint was consumed by the reasoning call that produced this turn.
	s.ForceNewTopic = false

	// Rule 1: intro/behavioral flags, topic reset on any non-followup kind.
	switch kind {
	case KindIntro:
		s.HasAskedIntro = true
	case KindBehavioral:
		s.HasAskedBehavioral = true
	}
	if kind != KindFollowup {
		s.CurrentTopic = ""
		s.FollowupCount = 0
	} else {
		// Rule 2: follow-up counting seeded from the asked question.
		if s.CurrentTopic != "" {
			s.FollowupCount++
		} else {
			s.CurrentTopic = s.clarificationKey(kind, asked)
			s.FollowupCount = 1
		}
	}

	// Rule 3: clarification-depth tracking on low or extremely short answers.
	lowSignal := score <= s.flow.LowScoreMax || len(strings.TrimSpace(transcript)) <= s.flow.ShortAnswerChars
	if lowSignal {
		key := s.clarificationKey(kind, asked)
		if key == s.LastClarificationTopic {
			s.ClarificationDepth++
		} else {
			s.ClarificationDepth = 1
			s.LastClarificationTopic = key
		}
		if s.ClarificationDepth >= s.flow.ClarificationCap {
			s.ForceNewTopic = true
			s.ClarificationDepth = 0
			s.LastClarificationTopic = ""
		}
	} else if score > s.flow.LowScoreMax {
		s.ClarificationDepth = 0
		s.LastClarificationTopic = ""
	}

	// Rule 4: follow-up cap forces a topic change.
	if s.FollowupCount >= s.flow.FollowupCap {
		s.ForceNewTopic = true
		s.FollowupCount = 0
	}

	// Rule 5: coverage via case-insensitive substring matching.
	s.updateCoverage(asked, transcript, kind)

	// Rule 6: struggle streak.
	if score <= s.flow.LowScoreMax {
		s.StruggleStreak++
	} else {
		s.StruggleStreak = 0
	}

	// Rule 7: append and count.
	s.History = append(s.History, TurnRecord{
		Question: asked,
		Answer:   transcript,
		Score:    score,
		Kind:     kind,
	})
	s.QuestionCount++
}

// updateCoverage substring-matches résumé topics against the asked question
// and the transcript. This is a deliberate best-effort heuristic; partial-word
// false positives are accepted.
func (s *SessionState) updateCoverage(asked, transcript string, kind QuestionKind) {
	haystack := strings.ToLower(asked + " " + transcript)
	for _, tc := range s.Profile.Topics() {
		if strings.Contains(haystack, strings.ToLower(tc.Topic)) {
			s.coverTopic(tc.Topic)
			if tc.Category == "projects" {
				s.CoveredDimension[DimProjects] = true
				s.CoveredDimension[DimImpact] = true
			}
		}
	}
	s.CoveredDimension[DimCommunication] = true
	switch kind {
	case KindTechnical:
		s.CoveredDimension[DimSkills] = true
	case KindBehavioral:
		s.CoveredDimension[DimProblemSolving] = true
	}
}
