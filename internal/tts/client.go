package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/systemis/ai-virtual-interviewer/internal/config"
)

// Client calls a text-to-speech endpoint that accepts JSON {"text","voice"}
// and returns the raw audio bytes.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type synthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// NewClient creates a new synthesis client
func NewClient(cfg *config.Config) *Client {
	// Synthesis of a full interviewer turn can take a while
	return &Client{
		endpoint:   cfg.TTSAPIURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize converts text to audio bytes in the given voice
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("no text provided")
	}

	reqBody, err := json.Marshal(synthesisRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to synthesis endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("synthesis endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("synthesis endpoint returned empty audio")
	}

	return body, nil
}

// HealthCheck checks if the synthesis endpoint is reachable
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("synthesis endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	return true, nil
}
