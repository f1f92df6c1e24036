package interview

import (
	"fmt"
	"strings"
)

// OpeningUserMessage is the fixed candidate message that kicks off the
// conversation with the chat backend.
const OpeningUserMessage = "Hello, I'm ready for the interview."

// ClosingSentinel is the phrase the interviewer is instructed to emit
// verbatim when the question plan runs out. The ending banner and the
// feedback trigger both key off it, so the wording is a contract.
const ClosingSentinel = "That concludes our interview. I will now generate your feedback."

// IsClosingStatement reports whether an interviewer line marks the end of
// the interview. Matching is deliberately loose (case-insensitive
// substring) so minor rephrasings by the model still register.
func IsClosingStatement(text string) bool {
	return strings.Contains(strings.ToLower(text), "concludes our interview")
}

// persona is the shared system-prompt preamble describing who the model is
func persona(cfg SessionConfig) string {
	return fmt.Sprintf(
		"You are a professional interviewer conducting a %s interview for a %s position. The candidate has %s experience.",
		cfg.InterviewType, cfg.JobRole, cfg.ExperienceLevel,
	)
}

// questionPlanPrompt asks the model for the session's question list as a
// strict JSON array of strings.
func questionPlanPrompt(cfg SessionConfig, count int) string {
	return fmt.Sprintf(`%s

Generate exactly %d interview questions tailored to this role, experience level, and interview type.

Respond ONLY with a JSON array of strings, no other text:
["question 1", "question 2", ...]`, persona(cfg), count)
}

// openingPrompt instructs the model to greet the candidate and pose the
// first planned question as its opening line.
func openingPrompt(cfg SessionConfig, firstQuestion string) string {
	return fmt.Sprintf(`%s

Your role:
- Be encouraging but professional
- Keep responses concise and conversational (2-3 sentences max per turn)

Greet the candidate briefly, then ask this exact question:
"%s"

Do not ask any other question or add commentary beyond the greeting.`, persona(cfg), firstQuestion)
}

// nextQuestionPrompt instructs the model to acknowledge the answer just
// given and ask the next planned question verbatim.
func nextQuestionPrompt(cfg SessionConfig, nextQuestion string) string {
	return fmt.Sprintf(`%s

Your role:
- Be encouraging but professional
- Keep responses concise and conversational (2-3 sentences max per turn)

Briefly acknowledge the candidate's answer, then ask this exact question:
"%s"

Do not rephrase the question or add any other question.`, persona(cfg), nextQuestion)
}

// retryPrompt instructs the model to re-ask the same question when the
// candidate asked for clarification or went off topic.
func retryPrompt(cfg SessionConfig, question string) string {
	return fmt.Sprintf(`%s

Your role:
- Be encouraging but professional
- Keep responses concise and conversational (2-3 sentences max per turn)

The candidate did not answer the current question. Politely clarify if they asked for clarification, and ask them to answer this question:
"%s"

If they have repeatedly declined to answer, you may offer to end the interview instead.`, persona(cfg), question)
}

// closingPromptRequested instructs the model to wrap up after the
// candidate asked to stop.
func closingPromptRequested(cfg SessionConfig) string {
	return fmt.Sprintf(`%s

The candidate has asked to end the interview. Acknowledge their request, thank them for their time, and let them know their feedback is being generated now. Keep it to 2-3 sentences. Do not ask any further questions.`, persona(cfg))
}

// closingPromptExhausted instructs the model to wrap up after the last
// planned question was answered. The sentinel phrase must appear verbatim.
func closingPromptExhausted(cfg SessionConfig) string {
	return fmt.Sprintf(`%s

That was the final question. Briefly acknowledge the candidate's answer, thank them, and then say this exact phrase verbatim:
"%s"

Do not ask any further questions.`, persona(cfg), ClosingSentinel)
}

// classifierPrompt asks the model for a strict YES/NO judgement on whether
// the utterance is an attempt to answer the question.
func classifierPrompt(question, utterance string) string {
	return fmt.Sprintf(`You are evaluating a single interview exchange.

Question: %s

Candidate's response: %s

Did the candidate attempt to answer the question? A clarification request, an unrelated remark, or a refusal does not count as an attempt.

Respond with strictly YES or NO and nothing else.`, question, utterance)
}

// feedbackPrompt asks the model for the structured score report over the
// full labeled dialogue.
func feedbackPrompt(cfg SessionConfig, dialogue string) string {
	return fmt.Sprintf(`You are an expert interview coach. Review this %s job interview conversation for a %s position (%s candidate) and provide detailed feedback.

Interview Conversation:
%s

Provide feedback in the following JSON format (respond ONLY with valid JSON, no other text):
{
  "overallScore": <number 1-10>,
  "strengths": ["strength1", "strength2", "strength3"],
  "areasForImprovement": ["area1", "area2", "area3"],
  "communicationScore": <number 1-10>,
  "technicalScore": <number 1-10>,
  "detailedFeedback": "A paragraph of specific, actionable feedback",
  "recommendations": ["recommendation1", "recommendation2", "recommendation3"]
}

Be encouraging but honest. Focus on specific examples from the conversation.`, cfg.InterviewType, cfg.JobRole, cfg.ExperienceLevel, dialogue)
}
