package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/systemis/ai-virtual-interviewer/internal/config"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
	"github.com/systemis/ai-virtual-interviewer/internal/resilience"
)

// Client calls the product backend's chat completions endpoint
type Client struct {
	config         *config.Config
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
}

// wireRequest is the request payload for the chat completions endpoint
type wireRequest struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model,omitempty"`
	Messages     []Message     `json:"messages"`
	Temperature  float64       `json:"temperature"`
	MaxTokens    int           `json:"max_tokens"`
	IncludeAudio bool          `json:"include_audio"`
}

// wireResponse is the response payload from the chat completions endpoint
type wireResponse struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	Audio        *Audio `json:"audio,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewClient creates a new completion client
func NewClient(cfg *config.Config) *Client {
	circuitBreaker := resilience.NewCircuitBreaker(
		"llm",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)

	return &Client{
		config:         cfg,
		baseURL:        cfg.BackendAPIURL,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		circuitBreaker: circuitBreaker,
	}
}

// Complete sends a completion request and returns the backend's single reply
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.LLMMaxTokens
	}

	// The backend takes the system prompt as a leading system message
	messages := make([]Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, req.Messages...)

	body := wireRequest{
		Provider:     c.config.LLMProvider,
		Model:        c.config.LLMModel,
		Messages:     messages,
		Temperature:  0.7,
		MaxTokens:    maxTokens,
		IncludeAudio: req.IncludeAudio,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	var out wireResponse

	cbErr := c.circuitBreaker.Call(func() error {
		retryConfig := &resilience.RetryConfig{
			MaxAttempts:       c.config.RetryMaxAttempts,
			InitialBackoff:    time.Duration(c.config.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		}

		return resilience.Retry(ctx, func() error {
			return c.doRequest(ctx, jsonData, &out)
		}, retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState("llm", int(c.circuitBreaker.GetState()))
	if cbErr != nil {
		observability.IncrementCircuitBreakerFailures("llm")
		return nil, fmt.Errorf("completion request failed: %w", cbErr)
	}

	if out.Error != "" {
		return nil, fmt.Errorf("completion backend error: %s", out.Error)
	}

	return &Completion{Content: out.Content, Audio: out.Audio}, nil
}

// doRequest performs a single HTTP round trip
func (c *Client) doRequest(ctx context.Context, jsonData []byte, out *wireResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call completion backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("completion backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode completion response: %w", err)
	}

	return nil
}

// HealthCheck checks if the completion backend is reachable
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("completion backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
