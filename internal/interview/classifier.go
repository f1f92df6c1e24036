package interview

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/systemis/ai-virtual-interviewer/internal/llm"
)

// Intent is the classification of a candidate utterance against the
// current question.
type Intent int

const (
	// IntentAdvance means the candidate attempted an answer
	IntentAdvance Intent = iota
	// IntentRetry means the utterance was a clarification request or
	// unrelated content; the same question is asked again
	IntentRetry
	// IntentSkip means the candidate explicitly asked to move on;
	// resolves to advance behavior without judging answer quality
	IntentSkip
	// IntentEndNow means the candidate asked to stop the interview
	IntentEndNow
)

// String returns the intent name
func (i Intent) String() string {
	switch i {
	case IntentAdvance:
		return "advance"
	case IntentRetry:
		return "retry"
	case IntentSkip:
		return "skip"
	case IntentEndNow:
		return "end-now"
	}
	return "unknown"
}

// endPatterns match explicit requests to terminate the interview. Checked
// before anything else so a termination request never reaches the model.
var endPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(end|stop|finish|quit)\b.{0,20}\binterview\b`),
	regexp.MustCompile(`(?i)\b(skip|go|get)\b.{0,10}\bto\b.{0,10}\bfeedback\b`),
	regexp.MustCompile(`(?i)\b(see|give me|want)\b.{0,10}\b(my |the )?feedback\b`),
	regexp.MustCompile(`(?i)\b(don'?t|do not)\b.{0,10}\bwant to answer\b`),
	regexp.MustCompile(`(?i)\bi('?m| am)?\s*(all\s+)?done\b`),
	regexp.MustCompile(`(?i)\bno more questions\b`),
	regexp.MustCompile(`(?i)\bwrap (it|this) up\b`),
}

// skipPatterns match explicit requests to move to the next question
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(skip|pass)\b`),
	regexp.MustCompile(`(?i)\bskip\b.{0,20}\bquestion\b`),
	regexp.MustCompile(`(?i)\bnext question\b`),
	regexp.MustCompile(`(?i)\bmove on\b`),
}

// Classifier decides whether a candidate's utterance counts as an answer.
// Pattern checks handle the explicit cases; everything else goes to the
// model for a YES/NO judgement. Read-only: safe to call twice with the
// same inputs.
type Classifier struct {
	completer llm.Completer
}

// NewClassifier creates a classifier backed by the given completer
func NewClassifier(completer llm.Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify resolves the intent for one turn. A failed model call is
// returned to the caller as-is; there is no local retry, so the
// orchestrator's error boundary is the one place the failure surfaces.
func (c *Classifier) Classify(ctx context.Context, question, utterance string) (Intent, error) {
	for _, p := range endPatterns {
		if p.MatchString(utterance) {
			return IntentEndNow, nil
		}
	}
	for _, p := range skipPatterns {
		if p.MatchString(utterance) {
			return IntentSkip, nil
		}
	}

	completion, err := c.completer.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: classifierPrompt(question, utterance)},
		},
	})
	if err != nil {
		return IntentRetry, fmt.Errorf("classify turn: %w", err)
	}

	// Substring match keeps the historical leniency: any response
	// containing YES counts as an attempted answer.
	if strings.Contains(strings.ToUpper(completion.Content), "YES") {
		return IntentAdvance, nil
	}
	return IntentRetry, nil
}
