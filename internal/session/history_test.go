package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/systemis/ai-virtual-interviewer/internal/auth"
	"github.com/systemis/ai-virtual-interviewer/internal/interview"
	"github.com/systemis/ai-virtual-interviewer/internal/store"
)

func newHistoryServer(t *testing.T) (*httptest.Server, *store.Store, *auth.TokenIssuer) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "interviews.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer() failed: %v", err)
	}

	mux := http.NewServeMux()
	(&HistoryHandler{Store: s, Tokens: tokens}).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, s, tokens
}

func mintToken(t *testing.T, tokens *auth.TokenIssuer, userID string) string {
	t.Helper()
	token, _, err := tokens.Mint(userID)
	if err != nil {
		t.Fatalf("Mint() failed: %v", err)
	}
	return token
}

func saveInterview(t *testing.T, s *store.Store, userID string) string {
	t.Helper()
	id, err := s.Save(context.Background(), userID,
		interview.SessionConfig{JobRole: "Backend Engineer", ExperienceLevel: interview.ExperienceMidLevel, InterviewType: interview.TypeTechnical},
		interview.Transcript{{Speaker: interview.SpeakerInterviewer, Text: "Q?"}},
		&interview.FeedbackReport{OverallScore: 8, CommunicationScore: 7, TechnicalScore: 9},
		5)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	return id
}

func doRequest(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestMintToken(t *testing.T) {
	server, _, _ := newHistoryServer(t)

	body, _ := json.Marshal(map[string]string{"userId": "user-1"})
	resp, err := http.Post(server.URL+"/api/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload["token"] == "" || payload["sessionId"] == "" {
		t.Errorf("Expected token and sessionId, got %v", payload)
	}
}

func TestMintToken_MissingUser(t *testing.T) {
	server, _, _ := newHistoryServer(t)

	resp, err := http.Post(server.URL+"/api/token", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestListInterviews(t *testing.T) {
	server, s, tokens := newHistoryServer(t)
	saveInterview(t, s, "user-1")
	saveInterview(t, s, "user-1")
	saveInterview(t, s, "user-2")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/interviews", mintToken(t, tokens, "user-1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var records []store.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestListInterviews_Unauthorized(t *testing.T) {
	server, _, _ := newHistoryServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/interviews", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestGetInterview(t *testing.T) {
	server, s, tokens := newHistoryServer(t)
	id := saveInterview(t, s, "user-1")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/interviews/"+id, mintToken(t, tokens, "user-1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var record store.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if record.ID != id || record.OverallScore != 8 {
		t.Errorf("Unexpected record: %+v", record)
	}
}

func TestGetInterview_OtherUsersRecordHidden(t *testing.T) {
	server, s, tokens := newHistoryServer(t)
	id := saveInterview(t, s, "user-1")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/interviews/"+id, mintToken(t, tokens, "user-2"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for another user's record, got %d", resp.StatusCode)
	}
}

func TestDeleteInterview(t *testing.T) {
	server, s, tokens := newHistoryServer(t)
	id := saveInterview(t, s, "user-1")
	token := mintToken(t, tokens, "user-1")

	resp := doRequest(t, http.MethodDelete, server.URL+"/api/interviews/"+id, token)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/interviews/"+id, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDeleteInterview_OtherUsersRecordHidden(t *testing.T) {
	server, s, tokens := newHistoryServer(t)
	id := saveInterview(t, s, "user-1")

	resp := doRequest(t, http.MethodDelete, server.URL+"/api/interviews/"+id, mintToken(t, tokens, "user-2"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for another user's record, got %d", resp.StatusCode)
	}

	// The record must still exist for its owner
	resp = doRequest(t, http.MethodGet, server.URL+"/api/interviews/"+id, mintToken(t, tokens, "user-1"))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Record should survive a stranger's delete, got %d", resp.StatusCode)
	}
}
