package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the interview service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// LLM backend configuration. The backend exposes a chat completions
	// endpoint (optionally returning inline synthesized audio) in the
	// shape of the product API.
	BackendAPIURL  string `envconfig:"BACKEND_API_URL" default:"http://localhost:8000/api"`
	LLMProvider    string `envconfig:"LLM_PROVIDER" default:"anthropic"` // anthropic, openai
	LLMModel       string `envconfig:"LLM_MODEL" default:""`             // empty uses the backend default
	LLMMaxTokens   int    `envconfig:"LLM_MAX_TOKENS" default:"300"`     // per interviewer turn
	FeedbackTokens int    `envconfig:"FEEDBACK_MAX_TOKENS" default:"1500"`

	// Speech-to-text configuration (whisper-style multipart endpoint)
	STTAPIURL string `envconfig:"STT_API_URL" default:"http://localhost:8000/api/speech-to-text"`

	// Text-to-speech configuration, used when the chat backend does not
	// inline audio in its responses
	TTSAPIURL string `envconfig:"TTS_API_URL" default:"http://localhost:8000/api/text-to-speech"`
	TTSVoice  string `envconfig:"TTS_VOICE" default:"aria"`

	// Interview configuration
	QuestionCount int `envconfig:"QUESTION_COUNT" default:"5"` // target question plan size
	HistoryWindow int `envconfig:"HISTORY_WINDOW" default:"4"` // transcript turns sent per chat request

	// Persistence
	SQLitePath string `envconfig:"SQLITE_PATH" default:"interviews.db"`

	// Session token signing
	SessionTokenSecret string `envconfig:"SESSION_TOKEN_SECRET" required:"true"`
	SessionTokenTTL    int    `envconfig:"SESSION_TOKEN_TTL" default:"7200"` // seconds

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate required fields
	if cfg.SessionTokenSecret == "" {
		return nil, fmt.Errorf("SESSION_TOKEN_SECRET is required")
	}
	if cfg.BackendAPIURL == "" {
		return nil, fmt.Errorf("BACKEND_API_URL is required")
	}
	if cfg.QuestionCount <= 0 {
		return nil, fmt.Errorf("QUESTION_COUNT must be positive, got %d", cfg.QuestionCount)
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
