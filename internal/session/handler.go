package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/systemis/ai-virtual-interviewer/internal/auth"
	"github.com/systemis/ai-virtual-interviewer/internal/config"
	"github.com/systemis/ai-virtual-interviewer/internal/interview"
	"github.com/systemis/ai-virtual-interviewer/internal/llm"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
	"github.com/systemis/ai-virtual-interviewer/internal/store"
	"github.com/systemis/ai-virtual-interviewer/internal/stt"
	"github.com/systemis/ai-virtual-interviewer/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the web client's origin before exposing publicly
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Deps are the collaborators a live session needs
type Deps struct {
	Config      *config.Config
	Completer   llm.Completer
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Store       *store.Store
	Tokens      *auth.TokenIssuer
}

// startTimeout bounds how long we wait for the client's start frame
const startTimeout = 30 * time.Second

// Handler upgrades the connection and runs one interview session over it.
// The first frame must be a start frame carrying a session token and the
// interview setup.
func Handler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
			return
		}
		defer conn.Close()

		claims, setup, ok := awaitStart(conn, deps.Tokens)
		if !ok {
			return
		}

		logger := observability.WithSession(claims.SessionID).With().
			Str("user_id", claims.UserID).
			Str("job_role", setup.JobRole).
			Logger()
		logger.Info().Msg("Interview session started")

		live := newLiveSession(conn, claims.SessionID, claims.UserID, logger)

		cfg := interview.SessionConfig{
			JobRole:         setup.JobRole,
			ExperienceLevel: interview.ExperienceLevel(setup.ExperienceLevel),
			InterviewType:   interview.InterviewType(setup.InterviewType),
			UseVoice:        setup.UseVoice,
		}
		orch := interview.NewOrchestrator(cfg, deps.Completer, interview.Options{
			QuestionCount:     deps.Config.QuestionCount,
			HistoryWindow:     deps.Config.HistoryWindow,
			FeedbackMaxTokens: deps.Config.FeedbackTokens,
			Logger:            logger,
		})

		var saver interview.Saver
		if deps.Store != nil {
			saver = &store.SessionSaver{Store: deps.Store, UserID: claims.UserID}
		}

		live.sequencer = interview.NewSequencer(interview.SequencerDeps{
			Orchestrator: orch,
			Transcriber:  deps.Transcriber,
			Synthesizer:  deps.Synthesizer,
			Player:       live,
			Saver:        saver,
			Voice:        deps.Config.TTSVoice,
			Metrics:      live.metrics,
			Logger:       logger,
		})

		go live.readLoop()
		live.run(context.Background())
	}
}

// awaitStart reads and validates the start frame. Any failure closes the
// connection after an error frame.
func awaitStart(conn *websocket.Conn, tokens *auth.TokenIssuer) (auth.Claims, *Setup, bool) {
	logger := observability.GetLogger()

	conn.SetReadDeadline(time.Now().Add(startTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var frame ClientFrame
	if err := conn.ReadJSON(&frame); err != nil {
		logger.Warn().Err(err).Msg("Failed to read start frame")
		return auth.Claims{}, nil, false
	}

	if frame.Event != "start" || frame.Setup == nil {
		conn.WriteJSON(ServerFrame{Event: "error", Message: "expected a start frame with setup"})
		return auth.Claims{}, nil, false
	}

	claims, err := tokens.Verify(frame.Token)
	if err != nil {
		conn.WriteJSON(ServerFrame{Event: "error", Message: "invalid session token"})
		return auth.Claims{}, nil, false
	}

	if frame.Setup.JobRole == "" {
		conn.WriteJSON(ServerFrame{Event: "error", Message: "job role is required"})
		return auth.Claims{}, nil, false
	}

	return claims, frame.Setup, true
}
