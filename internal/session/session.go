package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/systemis/ai-virtual-interviewer/internal/audio"
	"github.com/systemis/ai-virtual-interviewer/internal/interview"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
)

// ClientFrame is a message from the candidate's client
type ClientFrame struct {
	Event string `json:"event"`
	Token string `json:"token,omitempty"`
	Setup *Setup `json:"setup,omitempty"`
	Text  string `json:"text,omitempty"`
	// Payload carries base64 audio for spoken answers
	Payload string `json:"payload,omitempty"`
}

// Setup is the candidate's interview configuration in the start frame
type Setup struct {
	JobRole         string `json:"jobRole"`
	ExperienceLevel string `json:"experienceLevel"`
	InterviewType   string `json:"interviewType"`
	UseVoice        bool   `json:"useVoice"`
}

// ServerFrame is a message to the candidate's client
type ServerFrame struct {
	Event     string                    `json:"event"`
	Text      string                    `json:"text,omitempty"`
	Stage     string                    `json:"stage,omitempty"`
	Payload   string                    `json:"payload,omitempty"`
	Report    *interview.FeedbackReport `json:"report,omitempty"`
	Message   string                    `json:"message,omitempty"`
	Retryable bool                      `json:"retryable,omitempty"`
}

// LiveSession owns one websocket connection for the duration of an
// interview. Reads happen on a dedicated goroutine; candidate input and
// playback acknowledgements are routed to the turn loop over channels.
type LiveSession struct {
	conn *websocket.Conn

	// Write serialization; the turn loop and close path both write
	writeMu sync.Mutex

	sessionID string
	userID    string

	sequencer *interview.Sequencer

	input chan ClientFrame
	acks  chan struct{}
	done  chan struct{}

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// newLiveSession wires a session around an upgraded connection
func newLiveSession(conn *websocket.Conn, sessionID, userID string, logger zerolog.Logger) *LiveSession {
	metrics := observability.NewSessionMetrics(sessionID)
	metrics.RecordSessionStart()

	return &LiveSession{
		conn:      conn,
		sessionID: sessionID,
		userID:    userID,
		input:     make(chan ClientFrame, 8),
		acks:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		metrics:   metrics,
		logger:    logger,
	}
}

// readLoop reads client frames and routes them. Playback acknowledgements
// go to their own channel so the turn loop can wait on them while a turn
// is in flight.
func (s *LiveSession) readLoop() {
	defer close(s.done)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.logger.Error().Err(err).Msg("Failed to parse client frame")
			continue
		}

		switch frame.Event {
		case "playback-done":
			select {
			case s.acks <- struct{}{}:
			default:
			}
		case "answer", "audio":
			select {
			case s.input <- frame:
			default:
				// Input while a turn is in flight; reject rather than queue
				s.sendError("a turn is already being processed", true)
			}
		default:
			s.logger.Debug().Str("event", frame.Event).Msg("Ignoring client frame")
		}
	}
}

// Play forwards an interviewer audio turn to the client and blocks until
// the client acknowledges playback, the estimated duration elapses with a
// grace period, or the context ends. Satisfies the playback contract used
// by the sequencer.
func (s *LiveSession) Play(ctx context.Context, audioData []byte) error {
	if err := s.send(ServerFrame{Event: "audio", Payload: audio.EncodeBase64(audioData)}); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}

	deadline := audio.EstimateDuration(audioData, 0) + 10*time.Second
	select {
	case <-s.acks:
		return nil
	case <-time.After(deadline):
		return errors.New("playback acknowledgement timed out")
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.New("connection closed during playback")
	}
}

func (s *LiveSession) send(frame ServerFrame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(frame)
}

func (s *LiveSession) sendError(message string, retryable bool) {
	if err := s.send(ServerFrame{Event: "error", Message: message, Retryable: retryable}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send error frame")
	}
}

// sendOutcome pushes the interviewer's turn and, on conclusion, the
// feedback report.
func (s *LiveSession) sendOutcome(outcome *interview.TurnOutcome) {
	if err := s.send(ServerFrame{Event: "turn", Text: outcome.Reply, Stage: outcome.Stage.String()}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send turn frame")
		return
	}
	if outcome.Concluded {
		if err := s.send(ServerFrame{Event: "feedback", Report: outcome.Feedback}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send feedback frame")
		}
	}
}

// run drives the interview until conclusion or disconnect
func (s *LiveSession) run(ctx context.Context) {
	defer s.metrics.RecordSessionEnd()

	outcome, err := s.sequencer.Begin(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to start interview")
		s.sendError("could not start the interview, please try again", true)
		return
	}
	s.sendOutcome(outcome)

	for {
		select {
		case frame := <-s.input:
			concluded := s.handleInput(ctx, frame)
			if concluded {
				s.logger.Info().Msg("Interview session complete")
				return
			}
		case <-s.done:
			s.logger.Info().Msg("Client disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleInput processes one candidate frame; reports whether the
// interview concluded.
func (s *LiveSession) handleInput(ctx context.Context, frame ClientFrame) bool {
	var outcome *interview.TurnOutcome
	var err error

	switch frame.Event {
	case "answer":
		outcome, err = s.sequencer.SubmitText(ctx, frame.Text)

	case "audio":
		audioData, decodeErr := audio.DecodeBase64(frame.Payload)
		if decodeErr != nil {
			s.sendError("could not decode audio payload", true)
			return false
		}
		var text string
		text, outcome, err = s.sequencer.SubmitAudio(ctx, audioData)
		if err == nil {
			// Echo the transcription so the client can render it
			if sendErr := s.send(ServerFrame{Event: "transcription", Text: text}); sendErr != nil {
				s.logger.Warn().Err(sendErr).Msg("Failed to send transcription frame")
			}
		}
	}

	if err != nil {
		if errors.Is(err, interview.ErrTurnInFlight) {
			s.sendError("a turn is already being processed", true)
			return false
		}
		s.logger.Error().Err(err).Msg("Turn failed")
		s.metrics.RecordError("turn_failed", "session")
		s.sendError("that didn't go through, please try again", true)
		return false
	}

	s.sendOutcome(outcome)
	return outcome.Concluded
}
