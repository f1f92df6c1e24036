package interview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/systemis/ai-virtual-interviewer/internal/llm"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
)

// QuestionPlan is the ordered question list for one session with a cursor
// tracking progress. The question list is fixed after generation; Advance
// returns a new plan rather than mutating the receiver.
type QuestionPlan struct {
	Questions    []string `json:"questions"`
	CurrentIndex int      `json:"currentIndex"`
}

// fallbackQuestions is the built-in plan used when question generation
// returns something unusable. Generic on purpose so it works for any role.
func fallbackQuestions() []string {
	return []string{
		"Tell me about yourself and your background.",
		"What interests you about this role?",
		"Describe a challenging situation you faced at work and how you handled it.",
		"What do you consider your greatest professional strength?",
		"Where do you see yourself in five years?",
	}
}

// GeneratePlan requests a tailored question list from the chat backend.
// Any failure, network or parse, is recovered locally by substituting the
// fallback list so the session always starts with a usable plan.
func GeneratePlan(ctx context.Context, completer llm.Completer, cfg SessionConfig, count int, logger zerolog.Logger) QuestionPlan {
	if count <= 0 {
		count = 5
	}

	completion, err := completer.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: questionPlanPrompt(cfg, count)},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Question generation failed, using fallback question list")
		observability.RecordQuestionPlanFallback()
		return QuestionPlan{Questions: fallbackQuestions()}
	}

	questions, err := parseQuestionList(completion.Content)
	if err != nil {
		logger.Warn().Err(err).Msg("Question list unparseable, using fallback question list")
		observability.RecordQuestionPlanFallback()
		return QuestionPlan{Questions: fallbackQuestions()}
	}

	logger.Debug().Int("questions", len(questions)).Msg("Generated question plan")
	return QuestionPlan{Questions: questions}
}

// parseQuestionList decodes the model's response into a question list.
// Tolerates any length >= 1; an empty array is treated as unusable.
func parseQuestionList(content string) ([]string, error) {
	var questions []string
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &questions); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.New("question list is empty")
	}
	return questions, nil
}

// Advance returns a new plan with the cursor moved forward one question
func (p QuestionPlan) Advance() QuestionPlan {
	return QuestionPlan{Questions: p.Questions, CurrentIndex: p.CurrentIndex + 1}
}

// IsExhausted reports whether the cursor has moved past the last question
func (p QuestionPlan) IsExhausted() bool {
	return p.CurrentIndex >= len(p.Questions)
}

// Current returns the question under the cursor, clamped to the last
// question. The bool is false only for an empty plan.
func (p QuestionPlan) Current() (string, bool) {
	if len(p.Questions) == 0 {
		return "", false
	}
	idx := p.CurrentIndex
	if idx >= len(p.Questions) {
		idx = len(p.Questions) - 1
	}
	return p.Questions[idx], true
}

// stripCodeFences removes Markdown code-fence wrapping the model sometimes
// adds around JSON payloads.
func stripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json\n", "")
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```\n", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}
