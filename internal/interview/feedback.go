package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/systemis/ai-virtual-interviewer/internal/llm"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
)

// Synthesizer turns a finished transcript into a scored feedback report.
// This is the one place a model response is trusted to be JSON; anything
// unparseable degrades to the fixed fallback report so the candidate
// always reaches a feedback screen.
type Synthesizer struct {
	completer llm.Completer
	maxTokens int
	logger    zerolog.Logger
}

// NewSynthesizer creates a feedback synthesizer
func NewSynthesizer(completer llm.Completer, maxTokens int, logger zerolog.Logger) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &Synthesizer{completer: completer, maxTokens: maxTokens, logger: logger}
}

// Generate produces the feedback report for a session. Never returns an
// error: scoring failures are recovered with the fallback report.
func (s *Synthesizer) Generate(ctx context.Context, cfg SessionConfig, transcript Transcript) *FeedbackReport {
	completion, err := s.completer.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: feedbackPrompt(cfg, FormatDialogue(transcript))},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Feedback generation failed, using fallback report")
		observability.RecordFeedbackFallback()
		return fallbackReport()
	}

	var report FeedbackReport
	if err := json.Unmarshal([]byte(stripCodeFences(completion.Content)), &report); err != nil {
		s.logger.Warn().Err(err).Msg("Feedback response unparseable, using fallback report")
		observability.RecordFeedbackFallback()
		return fallbackReport()
	}

	s.logger.Debug().
		Int("overall_score", report.OverallScore).
		Msg("Generated feedback report")
	return &report
}

// FormatDialogue serializes a transcript into the labeled dialogue string
// embedded in the scoring prompt.
func FormatDialogue(transcript Transcript) string {
	lines := make([]string, 0, len(transcript))
	for _, turn := range transcript {
		label := "Candidate"
		if turn.Speaker == SpeakerInterviewer {
			label = "Interviewer"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, turn.Text))
	}
	return strings.Join(lines, "\n\n")
}

// fallbackReport is the fixed report used when scoring cannot be parsed
func fallbackReport() *FeedbackReport {
	return &FeedbackReport{
		OverallScore:       7,
		CommunicationScore: 7,
		TechnicalScore:     7,
		Strengths: []string{
			"Good communication",
			"Professional demeanor",
			"Clear responses",
		},
		AreasForImprovement: []string{
			"Provide more specific examples",
			"Ask clarifying questions",
			"Show more enthusiasm",
		},
		Recommendations: []string{
			"Practice STAR method",
			"Research the company",
			"Prepare questions to ask",
		},
		DetailedFeedback: "You did well overall. Continue practicing to improve your interview skills.",
		Degraded:         true,
	}
}
