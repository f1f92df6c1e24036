package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/systemis/ai-virtual-interviewer/internal/config"
)

// Client calls a whisper-style transcription endpoint that accepts a
// multipart "audio" field and returns JSON {"text":"...","success":true}.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type transcriptionResponse struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewClient creates a new transcription client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint:   cfg.STTAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Transcribe uploads recorded audio and returns the transcript.
// Errors are returned to the caller: a failed transcription means the turn
// cannot proceed, so the session must surface a retry prompt instead of
// silently skipping the turn.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio provided")
	}

	var b bytes.Buffer
	mw := multipart.NewWriter(&b)
	fw, err := mw.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio to form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &b)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post to transcription endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("unmarshal transcription response: %w", err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("transcription failed: %s", tr.Error)
	}

	return tr.Text, nil
}

// HealthCheck checks if the transcription endpoint is reachable
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("transcription endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	// Any HTTP answer means the endpoint is up; it may reject HEAD
	return true, nil
}
