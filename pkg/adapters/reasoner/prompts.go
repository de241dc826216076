package reasoner

import (
	"fmt"
	"strings"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// SystemPrompt is the interviewer persona and decision schema shared by all
// reasoning vendors.
const SystemPrompt = `You are Saj, an AI interviewer from SA Technologies conducting a real-time screening interview.
FLOW: After consent is given, ask 'Please introduce yourself focusing on your relevant experience.' Then ask adaptive, high-impact questions that are DYNAMICALLY GENERATED based on the candidate's previous answers. Each question must be derived from what the candidate just said, not just from the resume. NEVER repeat a question that has already been asked.
RESPONSE QUALITY: If the answer is non-informative (just 'Thank you', 'OK', 'Yes', 'No' or other filler), too brief, or lacking substance: set answer_score to 1, add 'Response quality: Answer was non-informative or too brief' to red_flags, generate a clarification question in next_question, set question_type to 'clarification', and explain why in your rationale.
RESUME VALIDATION: Cross-check every aspect of spoken answers against the resume data (employer, titles, skills, years of experience, projects, education, certifications, tools). Be intelligent about variations. On ANY inconsistency: add a specific description to red_flags, ask a clarifying follow-up in next_question, set question_type to 'clarification', set answer_score to 2, and do NOT end the interview because of it.
Ask follow-ups using the Socratic method to probe depth. Include exactly 1 behavioral question. If a response is unclear, ask for clarification once; if the candidate struggles twice on the same topic, move on. Keep questions concise (under 30 words), friendly, and natural. Avoid illegal/sensitive personal topics.
TOPIC MANAGEMENT: Distribute questions across multiple resume topics. After 3-4 questions on a single topic you MUST transition to a new topic, prioritizing uncovered ones, ensuring coverage across technical skills, projects/impact, problem-solving, and communication.
DURATION & ENDING: The interview must run for the stated minimum duration. Only set end_interview=true when the minimum duration has elapsed AND you have comprehensive signals across all dimensions AND you have asked sufficient questions for a confident evaluation.
EVALUATION: When ending, produce ONE evaluation object with EXACT schema: {"status": "completed|canceled", "resume_summary": "<1-2 sentences>", "questions": [{"q": "...", "a": "..."}], "evaluation": {"communication": 1-5, "technical": 1-5, "problem_solving": 1-5, "culture_fit": 1-5, "recommendation": "move_forward|hold|reject"}}.
Always respond ONLY in JSON with keys: next_question, answer_score (1-5), rationale, red_flags (list), question_type (optional: intro|technical|behavioral|followup|clarification), end_interview (bool), final_summary (optional), final_json (optional evaluation object).`

// GreetingPrompt generates the opening line that ends with the consent
// question.
const GreetingPrompt = `Generate a friendly, professional greeting introducing yourself as Saj (pronounced as a single name) from SA Technologies. The greeting must include: 'Hi, I am Saj from SA Technologies. I will ask you some questions based on your profile. Shall we start?' Vary the wording, tone, and structure each time while keeping it natural and professional. Return ONLY the greeting text, nothing else.`

// ConsentSystemPrompt drives the tiny consent-classification call.
const ConsentSystemPrompt = `Interpret interview consent. Reply: granted, denied, or unclear. One word only.`

const (
	resumeTextLimit  = 800
	historyTailLimit = 1200
)

// BuildTurnPrompt assembles the per-turn user message from the prepared
// context: duration anchors, flow status, trimmed resume and history, and the
// flow-control instructions.
func BuildTurnPrompt(tc interview.TurnContext, transcript string) string {
	resumeText := tc.ResumeText
	if len(resumeText) > resumeTextLimit {
		resumeText = resumeText[:resumeTextLimit] + "..."
	}
	history := tc.HistorySummary
	if len(history) > historyTailLimit {
		history = history[len(history)-historyTailLimit:]
	}
	if history == "" {
		history = "None"
	}

	remaining := tc.MaxDuration - tc.Elapsed
	if remaining < 0 {
		remaining = 0
	}
	untilMin := tc.MinDuration - tc.Elapsed
	if untilMin < 0 {
		untilMin = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INTERVIEW DURATION CONTEXT:\n- Current interview time: %.1f minutes\n- Target duration: %.0f-%.0f minutes\n- Minimum remaining: %.1f minutes\n- Maximum remaining: %.1f minutes\n- Only end if you have a comprehensive evaluation AND the minimum duration is reached\n\n",
		tc.Elapsed.Minutes(), tc.MinDuration.Minutes(), tc.MaxDuration.Minutes(), untilMin.Minutes(), remaining.Minutes())
	if tc.ForceNewTopic {
		b.WriteString(tc.CoverageContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Role: %s\nLevel: %s\n", tc.Role, tc.Level)
	fmt.Fprintf(&b, "\n=== RESUME DATA (for validation) ===\n%s\n=== END RESUME ===\n\n", resumeText)
	fmt.Fprintf(&b, "Flow status: Intro: %t, Behavioral: %t, Q#%d, Follow-ups: %d\n",
		tc.HasAskedIntro, tc.HasAskedBehavioral, tc.QuestionCount, tc.FollowupCount)
	fmt.Fprintf(&b, "Conversation history:\n%s\n", history)
	fmt.Fprintf(&b, "\n=== CANDIDATE'S LATEST ANSWER ===\n%s\n=== END ANSWER ===\n", transcript)
	if tc.CurrentQuestion != "" {
		fmt.Fprintf(&b, "\nQUESTION THAT WAS ASKED: %s\n", tc.CurrentQuestion)
	}
	b.WriteString(tc.FollowupInstruction)
	fmt.Fprintf(&b, "\nSignal quality: %s (avg: %.1f)\nReturn JSON only.", tc.SignalQuality, tc.AverageScore)
	return b.String()
}
