package interview

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/systemis/ai-virtual-interviewer/internal/audio"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
	"github.com/systemis/ai-virtual-interviewer/internal/stt"
	"github.com/systemis/ai-virtual-interviewer/internal/tts"
)

// ErrTurnInFlight is returned when a turn arrives while another is still
// being processed.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// Saver persists a finished session. Implemented by the store layer.
type Saver interface {
	Save(ctx context.Context, cfg SessionConfig, transcript Transcript, report *FeedbackReport, questionCount int) error
}

// SequencerDeps are the collaborators a sequencer drives around the
// orchestrator. Transcriber, Synthesizer, Player, and Saver may be nil
// when the corresponding step is not in play.
type SequencerDeps struct {
	Orchestrator *Orchestrator
	Transcriber  stt.Transcriber
	Synthesizer  tts.Synthesizer
	Player       audio.Player
	Saver        Saver
	Voice        string
	Metrics      *observability.Metrics
	Logger       zerolog.Logger
}

// Sequencer serializes turn-taking for one session: candidate input in,
// orchestrator decision, interviewer reply out, audio playback, transcript
// snapshot updated. At most one turn is in flight at a time; a second
// submission while one is processing is rejected, never queued.
type Sequencer struct {
	mu       sync.Mutex
	inFlight bool

	orch        *Orchestrator
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	player      audio.Player
	saver       Saver
	voice       string
	metrics     *observability.Metrics
	logger      zerolog.Logger

	transcript Transcript
	persisted  bool
}

// NewSequencer creates a sequencer for one session
func NewSequencer(deps SequencerDeps) *Sequencer {
	player := deps.Player
	if player == nil {
		player = audio.NopPlayer{}
	}
	return &Sequencer{
		orch:        deps.Orchestrator,
		transcriber: deps.Transcriber,
		synthesizer: deps.Synthesizer,
		player:      player,
		saver:       deps.Saver,
		voice:       deps.Voice,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Begin starts the interview and plays the opening line
func (s *Sequencer) Begin(ctx context.Context) (*TurnOutcome, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	outcome, err := s.orch.Start(ctx)
	if err != nil {
		return nil, err
	}

	s.setTranscript(outcome.Transcript)
	s.playReply(ctx, outcome)
	return outcome, nil
}

// SubmitText processes one typed candidate answer. On error the
// transcript snapshot is unchanged and the caller should prompt a retry.
func (s *Sequencer) SubmitText(ctx context.Context, utterance string) (*TurnOutcome, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	outcome, err := s.orch.SubmitAnswer(ctx, s.Transcript(), utterance)
	if err != nil {
		return nil, err
	}

	s.setTranscript(outcome.Transcript)
	if s.metrics != nil {
		s.metrics.RecordTurn(outcome.Intent.String())
	}

	s.playReply(ctx, outcome)

	if outcome.Concluded {
		s.persist(ctx, outcome)
	}
	return outcome, nil
}

// SubmitAudio transcribes a spoken answer and processes it. Transcription
// failure surfaces to the caller: with no fallback text the turn cannot
// proceed, so the client must show an explicit retry prompt.
func (s *Sequencer) SubmitAudio(ctx context.Context, audioData []byte) (string, *TurnOutcome, error) {
	if s.transcriber == nil {
		return "", nil, errors.New("no transcriber configured")
	}

	if s.metrics != nil {
		s.metrics.RecordSTTStart()
	}
	text, err := s.transcriber.Transcribe(ctx, audioData)
	if s.metrics != nil {
		s.metrics.RecordSTTEnd(err == nil)
	}
	if err != nil {
		return "", nil, err
	}

	outcome, err := s.SubmitText(ctx, text)
	return text, outcome, err
}

// Transcript returns the current transcript snapshot
func (s *Sequencer) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Feedback returns the session's feedback report once concluded
func (s *Sequencer) Feedback(ctx context.Context) *FeedbackReport {
	return s.orch.GenerateFeedback(ctx, s.Transcript())
}

// Stage returns the orchestrator's current stage
func (s *Sequencer) Stage() Stage { return s.orch.Stage() }

func (s *Sequencer) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrTurnInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Sequencer) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Sequencer) setTranscript(t Transcript) {
	s.mu.Lock()
	s.transcript = t
	s.mu.Unlock()
}

// playReply speaks the interviewer's line when voice is enabled. Audio
// failures are logged and swallowed: a dropped audio turn never blocks
// the text conversation.
func (s *Sequencer) playReply(ctx context.Context, outcome *TurnOutcome) {
	if !s.orch.Config().UseVoice || outcome.Reply == "" {
		return
	}

	var audioBytes []byte
	if outcome.Audio != nil && outcome.Audio.Data != "" {
		decoded, err := audio.DecodeBase64(outcome.Audio.Data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to decode inline audio")
			return
		}
		audioBytes = decoded
	} else if s.synthesizer != nil {
		if s.metrics != nil {
			s.metrics.RecordTTSStart()
		}
		synthesized, err := s.synthesizer.Synthesize(ctx, outcome.Reply, s.voice)
		if s.metrics != nil {
			s.metrics.RecordTTSEnd(err == nil)
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("Speech synthesis failed, continuing without audio")
			return
		}
		audioBytes = synthesized
	}

	if len(audioBytes) == 0 {
		return
	}
	if err := s.player.Play(ctx, audioBytes); err != nil {
		s.logger.Warn().Err(err).Msg("Audio playback failed, continuing")
	}
}

// persist saves the finished session. Best-effort: a failed save is
// logged and swallowed, and there is no retry queue. A repeated
// conclusion does not save again.
func (s *Sequencer) persist(ctx context.Context, outcome *TurnOutcome) {
	if s.saver == nil || s.persisted {
		return
	}
	s.persisted = true

	err := s.saver.Save(ctx, s.orch.Config(), outcome.Transcript, outcome.Feedback, len(s.orch.Plan().Questions))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to save interview session")
		observability.RecordPersistenceFailure()
	}
}
