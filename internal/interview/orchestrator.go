package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/systemis/ai-virtual-interviewer/internal/llm"
)

// ErrWrongStage is returned when an operation is attempted in a stage
// that does not allow it.
var ErrWrongStage = errors.New("operation not valid in current stage")

// Options tunes an orchestrator. Zero values fall back to the product
// defaults.
type Options struct {
	QuestionCount     int // target question plan length
	HistoryWindow     int // transcript turns sent per chat request
	FeedbackMaxTokens int
	Logger            zerolog.Logger
}

// TurnOutcome is what one orchestrator operation hands back to the
// sequencer: the new transcript snapshot, the interviewer's reply, and
// the resulting stage.
type TurnOutcome struct {
	Transcript Transcript
	Stage      Stage
	Intent     Intent
	Reply      string
	Audio      *llm.Audio
	Concluded  bool
	Feedback   *FeedbackReport
}

// Orchestrator is the session state machine. It owns the question plan
// and cursor, consults the classifier per turn, builds the per-turn
// prompts, and decides the next stage. It performs no audio playback and
// no persistence; the sequencer drives those around it.
//
// Not safe for concurrent use. The sequencer serializes calls.
type Orchestrator struct {
	cfg         SessionConfig
	completer   llm.Completer
	classifier  *Classifier
	synthesizer *Synthesizer
	logger      zerolog.Logger

	questionCount int
	historyWindow int

	plan     QuestionPlan
	stage    Stage
	feedback *FeedbackReport
}

// NewOrchestrator creates an orchestrator in the collecting-setup stage
func NewOrchestrator(cfg SessionConfig, completer llm.Completer, opts Options) *Orchestrator {
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = 5
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 4
	}

	return &Orchestrator{
		cfg:           cfg,
		completer:     completer,
		classifier:    NewClassifier(completer),
		synthesizer:   NewSynthesizer(completer, opts.FeedbackMaxTokens, opts.Logger),
		logger:        opts.Logger,
		questionCount: opts.QuestionCount,
		historyWindow: opts.HistoryWindow,
		stage:         StageCollectingSetup,
	}
}

// Stage returns the current stage
func (o *Orchestrator) Stage() Stage { return o.stage }

// Plan returns the current question plan snapshot
func (o *Orchestrator) Plan() QuestionPlan { return o.plan }

// Config returns the session configuration
func (o *Orchestrator) Config() SessionConfig { return o.cfg }

// Start generates the question plan and asks the opening question. On
// success the returned transcript holds exactly one interviewer turn and
// the orchestrator is awaiting the candidate. On failure the orchestrator
// returns to collecting-setup so the call can be retried.
func (o *Orchestrator) Start(ctx context.Context) (*TurnOutcome, error) {
	if o.stage != StageCollectingSetup {
		return nil, fmt.Errorf("%w: start in stage %s", ErrWrongStage, o.stage)
	}
	o.stage = StageProcessingTurn

	plan := GeneratePlan(ctx, o.completer, o.cfg, o.questionCount, o.logger)
	first, ok := plan.Current()
	if !ok {
		// GeneratePlan substitutes the fallback list on any failure,
		// so an empty plan here means a broken fallback.
		o.stage = StageCollectingSetup
		return nil, errors.New("question plan is empty")
	}

	completion, err := o.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: openingPrompt(o.cfg, first),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: OpeningUserMessage},
		},
		IncludeAudio: o.cfg.UseVoice,
	})
	if err != nil {
		o.stage = StageCollectingSetup
		return nil, fmt.Errorf("open interview: %w", err)
	}

	o.plan = plan
	o.stage = StageAwaitingTurn

	o.logger.Info().
		Int("questions", len(plan.Questions)).
		Str("job_role", o.cfg.JobRole).
		Msg("Interview started")

	return &TurnOutcome{
		Transcript: Transcript{}.Append(Turn{Speaker: SpeakerInterviewer, Text: completion.Content}),
		Stage:      o.stage,
		Reply:      completion.Content,
		Audio:      completion.Audio,
	}, nil
}

// SubmitAnswer processes one candidate utterance. The transcript argument
// is the sequencer's current snapshot; the outcome carries a new snapshot
// with the candidate turn and the interviewer's reply appended. If any
// step fails the input transcript is untouched and the orchestrator
// returns to awaiting-turn so the candidate can retry.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, transcript Transcript, utterance string) (*TurnOutcome, error) {
	if o.stage != StageAwaitingTurn {
		return nil, fmt.Errorf("%w: submit answer in stage %s", ErrWrongStage, o.stage)
	}
	o.stage = StageProcessingTurn

	question, _ := o.plan.Current()

	intent, err := o.classifier.Classify(ctx, question, utterance)
	if err != nil {
		o.stage = StageAwaitingTurn
		return nil, err
	}

	o.logger.Debug().
		Str("intent", intent.String()).
		Int("question_index", o.plan.CurrentIndex).
		Msg("Classified candidate turn")

	switch intent {
	case IntentEndNow:
		return o.conclude(ctx, transcript, utterance, intent, closingPromptRequested(o.cfg))

	case IntentAdvance, IntentSkip:
		next := o.plan.Advance()
		if next.IsExhausted() {
			return o.conclude(ctx, transcript, utterance, intent, closingPromptExhausted(o.cfg))
		}
		nextQuestion, _ := next.Current()
		outcome, err := o.reply(ctx, transcript, utterance, intent, nextQuestionPrompt(o.cfg, nextQuestion))
		if err != nil {
			return nil, err
		}
		o.plan = next
		return outcome, nil

	default: // retry
		return o.reply(ctx, transcript, utterance, intent, retryPrompt(o.cfg, question))
	}
}

// reply sends the candidate turn plus recent history with the given
// system prompt, appends both turns, and returns to awaiting-turn.
func (o *Orchestrator) reply(ctx context.Context, transcript Transcript, utterance string, intent Intent, systemPrompt string) (*TurnOutcome, error) {
	completion, err := o.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     o.historyMessages(transcript, utterance),
		IncludeAudio: o.cfg.UseVoice,
	})
	if err != nil {
		o.stage = StageAwaitingTurn
		return nil, fmt.Errorf("interviewer reply: %w", err)
	}

	o.stage = StageAwaitingTurn
	return &TurnOutcome{
		Transcript: transcript.Append(
			Turn{Speaker: SpeakerCandidate, Text: utterance},
			Turn{Speaker: SpeakerInterviewer, Text: completion.Content},
		),
		Stage:  o.stage,
		Intent: intent,
		Reply:  completion.Content,
		Audio:  completion.Audio,
	}, nil
}

// conclude runs the closing exchange and the feedback synthesis. The
// closing line failure is retryable (stage returns to awaiting-turn);
// feedback synthesis never fails.
func (o *Orchestrator) conclude(ctx context.Context, transcript Transcript, utterance string, intent Intent, closingPrompt string) (*TurnOutcome, error) {
	completion, err := o.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: closingPrompt,
		Messages:     o.historyMessages(transcript, utterance),
		IncludeAudio: o.cfg.UseVoice,
	})
	if err != nil {
		o.stage = StageAwaitingTurn
		return nil, fmt.Errorf("closing statement: %w", err)
	}

	final := transcript.Append(
		Turn{Speaker: SpeakerCandidate, Text: utterance},
		Turn{Speaker: SpeakerInterviewer, Text: completion.Content},
	)

	o.stage = StageConcluding
	feedback := o.GenerateFeedback(ctx, final)

	o.logger.Info().
		Str("intent", intent.String()).
		Int("turns", len(final)).
		Msg("Interview concluded")

	return &TurnOutcome{
		Transcript: final,
		Stage:      o.stage,
		Intent:     intent,
		Reply:      completion.Content,
		Audio:      completion.Audio,
		Concluded:  true,
		Feedback:   feedback,
	}, nil
}

// GenerateFeedback produces the session's feedback report. The report is
// created at most once: a second call returns the first report unchanged,
// so a repeated conclusion is a retry rather than a new outcome.
func (o *Orchestrator) GenerateFeedback(ctx context.Context, transcript Transcript) *FeedbackReport {
	if o.feedback == nil {
		o.feedback = o.synthesizer.Generate(ctx, o.cfg, transcript)
	}
	o.stage = StageFeedbackReady
	return o.feedback
}

// historyMessages maps the most recent transcript turns plus the new
// utterance into chat messages. Truncation to the history window bounds
// the per-request payload; long interviews keep only recent context.
func (o *Orchestrator) historyMessages(transcript Transcript, utterance string) []llm.Message {
	recent := transcript.Last(o.historyWindow)
	messages := make([]llm.Message, 0, len(recent)+1)
	for _, turn := range recent {
		role := llm.RoleUser
		if turn.Speaker == SpeakerInterviewer {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: utterance})
}
