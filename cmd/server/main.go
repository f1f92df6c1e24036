package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/systemis/ai-virtual-interviewer/internal/auth"
	"github.com/systemis/ai-virtual-interviewer/internal/config"
	"github.com/systemis/ai-virtual-interviewer/internal/llm"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
	"github.com/systemis/ai-virtual-interviewer/internal/session"
	"github.com/systemis/ai-virtual-interviewer/internal/store"
	"github.com/systemis/ai-virtual-interviewer/internal/stt"
	"github.com/systemis/ai-virtual-interviewer/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("backend_api_url", cfg.BackendAPIURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Interview Service starting")

	// Open persistence
	interviewStore, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open interview store")
	}
	defer interviewStore.Close()

	// Session token issuer
	tokens, err := auth.NewTokenIssuer(cfg.SessionTokenSecret, time.Duration(cfg.SessionTokenTTL)*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create token issuer")
	}

	// External collaborators
	llmClient := llm.NewClient(cfg)
	sttClient := stt.NewClient(cfg)
	ttsClient := tts.NewClient(cfg)

	// Create HTTP server
	mux := http.NewServeMux()

	// Live interview sessions run over a websocket
	mux.HandleFunc("/sessions/live", session.Handler(session.Deps{
		Config:      cfg,
		Completer:   llmClient,
		Transcriber: sttClient,
		Synthesizer: ttsClient,
		Store:       interviewStore,
		Tokens:      tokens,
	}))

	// Token minting and interview history
	history := &session.HistoryHandler{Store: interviewStore, Tokens: tokens}
	history.Register(mux)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint probes the external collaborators
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"llm_backend": llmClient.HealthCheck,
		"stt":         sttClient.HealthCheck,
		"tts":         ttsClient.HealthCheck,
		"store": func(ctx context.Context) (bool, error) {
			if err := interviewStore.DB.PingContext(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// No read/write timeouts: live sessions hold their websocket for the
	// whole interview.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/sessions/live", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
