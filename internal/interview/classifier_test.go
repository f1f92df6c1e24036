package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/systemis/ai-virtual-interviewer/internal/llm"
)

var errBackendDown = errors.New("backend unreachable")

// stubCompleter routes completion requests through a test-provided
// function and records every request it sees.
type stubCompleter struct {
	respond  func(req llm.CompletionRequest) (*llm.Completion, error)
	requests []llm.CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	s.requests = append(s.requests, req)
	return s.respond(req)
}

func fixedCompleter(content string) *stubCompleter {
	return &stubCompleter{respond: func(llm.CompletionRequest) (*llm.Completion, error) {
		return &llm.Completion{Content: content}, nil
	}}
}

func failingCompleter(err error) *stubCompleter {
	return &stubCompleter{respond: func(llm.CompletionRequest) (*llm.Completion, error) {
		return nil, err
	}}
}

func TestClassify_EndNowPatterns(t *testing.T) {
	utterances := []string{
		"I'd like to end the interview",
		"can we stop the interview now",
		"I'd like to skip to feedback",
		"just give me my feedback",
		"I don't want to answer that",
		"I'm done",
		"no more questions please",
		"let's wrap it up",
	}

	for _, utterance := range utterances {
		// The completer must never be consulted for an end request
		completer := failingCompleter(errBackendDown)
		classifier := NewClassifier(completer)

		intent, err := classifier.Classify(context.Background(), "Q?", utterance)
		if err != nil {
			t.Errorf("Classify(%q) failed: %v", utterance, err)
			continue
		}
		if intent != IntentEndNow {
			t.Errorf("Classify(%q) = %s, expected end-now", utterance, intent)
		}
		if len(completer.requests) != 0 {
			t.Errorf("Classify(%q) consulted the completer", utterance)
		}
	}
}

func TestClassify_SkipPatterns(t *testing.T) {
	utterances := []string{
		"skip",
		"pass on that one",
		"next question please",
		"can we skip this question",
		"let's move on",
	}

	for _, utterance := range utterances {
		completer := failingCompleter(errBackendDown)
		classifier := NewClassifier(completer)

		intent, err := classifier.Classify(context.Background(), "Q?", utterance)
		if err != nil {
			t.Errorf("Classify(%q) failed: %v", utterance, err)
			continue
		}
		if intent != IntentSkip {
			t.Errorf("Classify(%q) = %s, expected skip", utterance, intent)
		}
	}
}

func TestClassify_YesAdvances(t *testing.T) {
	for _, response := range []string{"YES", "yes", "Yes, they answered.", "NO, wait, YES"} {
		classifier := NewClassifier(fixedCompleter(response))

		intent, err := classifier.Classify(context.Background(), "Q?", "I built a payment service at my last job.")
		if err != nil {
			t.Fatalf("Classify() failed: %v", err)
		}
		if intent != IntentAdvance {
			t.Errorf("Response %q classified as %s, expected advance", response, intent)
		}
	}
}

func TestClassify_NoRetries(t *testing.T) {
	for _, response := range []string{"NO", "no", "They asked for clarification."} {
		classifier := NewClassifier(fixedCompleter(response))

		intent, err := classifier.Classify(context.Background(), "Q?", "can you clarify the question?")
		if err != nil {
			t.Fatalf("Classify() failed: %v", err)
		}
		if intent != IntentRetry {
			t.Errorf("Response %q classified as %s, expected retry", response, intent)
		}
	}
}

func TestClassify_SendsQuestionAndUtterance(t *testing.T) {
	completer := fixedCompleter("YES")
	classifier := NewClassifier(completer)

	_, err := classifier.Classify(context.Background(), "What is your greatest strength?", "Persistence.")
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}

	if len(completer.requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(completer.requests))
	}
	prompt := completer.requests[0].Messages[0].Content
	if !strings.Contains(prompt, "What is your greatest strength?") || !strings.Contains(prompt, "Persistence.") {
		t.Errorf("Prompt missing question or utterance: %s", prompt)
	}
}

func TestClassify_ErrorPropagates(t *testing.T) {
	classifier := NewClassifier(failingCompleter(errBackendDown))

	_, err := classifier.Classify(context.Background(), "Q?", "An ordinary answer.")
	if !errors.Is(err, errBackendDown) {
		t.Errorf("Expected backend error to propagate, got %v", err)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	classifier := NewClassifier(fixedCompleter("YES"))

	first, err := classifier.Classify(context.Background(), "Q?", "An answer.")
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}
	second, err := classifier.Classify(context.Background(), "Q?", "An answer.")
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}

	if first != second {
		t.Errorf("Identical inputs classified differently: %s then %s", first, second)
	}
}
