package interview

import "strings"

// duplicateOverlap is the token-overlap ratio at or above which two questions
// are considered the same question.
const duplicateOverlap = 0.8

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func tokenSet(q string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizeQuestion(q)) {
		tok = strings.Trim(tok, ".,!?;:'\"()")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

// TokenOverlap computes |intersection| / max(|a|, |b|) over the word sets of
// two questions.
func TokenOverlap(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	shared := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			shared++
		}
	}
	larger := len(sa)
	if len(sb) > larger {
		larger = len(sb)
	}
	return float64(shared) / float64(larger)
}

// IsDuplicateQuestion reports whether the candidate question repeats any
// prior question: an exact case-insensitive match or a token overlap of 80%
// or more.
func IsDuplicateQuestion(question string, history []TurnRecord) bool {
	norm := normalizeQuestion(question)
	if norm == "" {
		return false
	}
	for _, turn := range history {
		if normalizeQuestion(turn.Question) == norm {
			return true
		}
		if TokenOverlap(question, turn.Question) >= duplicateOverlap {
			return true
		}
	}
	return false
}

// FallbackFollowup builds a replacement follow-up referencing the tail of the
// candidate's most recent answer, used when the generated question repeats a
// prior one.
func FallbackFollowup(lastAnswer string) string {
	words := strings.Fields(strings.TrimSpace(lastAnswer))
	if len(words) == 0 {
		return "Could you expand on your last answer with a concrete example?"
	}
	if len(words) > 8 {
		words = words[len(words)-8:]
	}
	return "You mentioned \"" + strings.Join(words, " ") + "\". Could you go deeper into that with a specific example?"
}
