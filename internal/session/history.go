package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/systemis/ai-virtual-interviewer/internal/auth"
	"github.com/systemis/ai-virtual-interviewer/internal/observability"
	"github.com/systemis/ai-virtual-interviewer/internal/store"
)

// HistoryHandler serves past-interview records for the authenticated user
type HistoryHandler struct {
	Store  *store.Store
	Tokens *auth.TokenIssuer
}

// Register mounts the history and token routes on the mux
func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/token", h.MintToken)
	mux.HandleFunc("GET /api/interviews", h.List)
	mux.HandleFunc("GET /api/interviews/{id}", h.Get)
	mux.HandleFunc("DELETE /api/interviews/{id}", h.Delete)
}

// MintToken issues a session token for a user. In production this sits
// behind the platform's own authentication; here the user ID is taken
// from the request body.
func (h *HistoryHandler) MintToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	token, claims, err := h.Tokens.Mint(body.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"sessionId": claims.SessionID,
	})
}

// List returns the caller's interviews, most recent first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		logger := observability.GetLogger()
		logger.Error().Err(err).Msg("Failed to list interviews")
		writeError(w, http.StatusInternalServerError, "could not load interviews")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Get returns one interview; callers can only read their own
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	record, err := h.Store.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "interview not found")
		return
	}
	if err != nil {
		logger := observability.GetLogger()
		logger.Error().Err(err).Msg("Failed to load interview")
		writeError(w, http.StatusInternalServerError, "could not load interview")
		return
	}
	if record.UserID != claims.UserID {
		writeError(w, http.StatusNotFound, "interview not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete removes one of the caller's interviews
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	record, err := h.Store.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && record.UserID != claims.UserID) {
		writeError(w, http.StatusNotFound, "interview not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete interview")
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		logger := observability.GetLogger()
		logger.Error().Err(err).Msg("Failed to delete interview")
		writeError(w, http.StatusInternalServerError, "could not delete interview")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate extracts and verifies the bearer token
func (h *HistoryHandler) authenticate(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return auth.Claims{}, false
	}

	claims, err := h.Tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return auth.Claims{}, false
	}
	return claims, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := observability.GetLogger()
		logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
