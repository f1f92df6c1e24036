package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	defer os.Unsetenv("SESSION_TOKEN_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SessionTokenSecret != "test-secret" {
		t.Errorf("Expected SessionTokenSecret 'test-secret', got '%s'", cfg.SessionTokenSecret)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("SESSION_TOKEN_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when SESSION_TOKEN_SECRET is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	defer os.Unsetenv("SESSION_TOKEN_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.BackendAPIURL != "http://localhost:8000/api" {
		t.Errorf("Expected default BackendAPIURL 'http://localhost:8000/api', got '%s'", cfg.BackendAPIURL)
	}

	if cfg.LLMProvider != "anthropic" {
		t.Errorf("Expected default LLMProvider 'anthropic', got '%s'", cfg.LLMProvider)
	}

	if cfg.LLMMaxTokens != 300 {
		t.Errorf("Expected default LLMMaxTokens 300, got %d", cfg.LLMMaxTokens)
	}

	if cfg.FeedbackTokens != 1500 {
		t.Errorf("Expected default FeedbackTokens 1500, got %d", cfg.FeedbackTokens)
	}

	if cfg.QuestionCount != 5 {
		t.Errorf("Expected default QuestionCount 5, got %d", cfg.QuestionCount)
	}

	if cfg.HistoryWindow != 4 {
		t.Errorf("Expected default HistoryWindow 4, got %d", cfg.HistoryWindow)
	}

	if cfg.TTSVoice != "aria" {
		t.Errorf("Expected default TTSVoice 'aria', got '%s'", cfg.TTSVoice)
	}

	if cfg.SQLitePath != "interviews.db" {
		t.Errorf("Expected default SQLitePath 'interviews.db', got '%s'", cfg.SQLitePath)
	}
}

func TestLoad_InvalidQuestionCount(t *testing.T) {
	os.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	os.Setenv("QUESTION_COUNT", "0")
	defer os.Unsetenv("SESSION_TOKEN_SECRET")
	defer os.Unsetenv("QUESTION_COUNT")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when QUESTION_COUNT is zero")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	os.Setenv("LLM_PROVIDER", "openai")
	defer os.Unsetenv("SESSION_TOKEN_SECRET")
	defer os.Unsetenv("LLM_PROVIDER")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LLMProvider != "openai" {
		t.Errorf("Expected LLMProvider 'openai', got '%s'", cfg.LLMProvider)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	os.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	defer os.Unsetenv("SESSION_TOKEN_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check resilience defaults
	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.RetryInitialBackoff != 100 {
		t.Errorf("Expected default RetryInitialBackoff 100, got %d", cfg.RetryInitialBackoff)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
