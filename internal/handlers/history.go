package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/session"
)

// HistoryHandler serves the conversation history.
type HistoryHandler struct {
	sessions session.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(sessions session.Service) *HistoryHandler {
	return &HistoryHandler{sessions: sessions}
}

// TurnResponse represents one recorded turn in the HTTP response.
type TurnResponse struct {
	Seq          int       `json:"seq"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Mode         string    `json:"mode"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResponse represents the conversation history.
type HistoryResponse struct {
	Turns []TurnResponse `json:"turns"`
}

// ServeHTTP returns all turns in chronological order.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	turns, err := h.sessions.History(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	resp := HistoryResponse{Turns: make([]TurnResponse, 0, len(turns))}
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, TurnResponse{
			Seq:          turn.Seq,
			Question:     turn.Question,
			Answer:       turn.Answer,
			ErrorMessage: turn.ErrorMsg,
			Mode:         turn.Mode,
			CreatedAt:    turn.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// ResetHandler clears the conversation history.
type ResetHandler struct {
	sessions session.Service
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(sessions session.Service) *ResetHandler {
	return &ResetHandler{sessions: sessions}
}

// ResetResponse represents the response after clearing the history.
type ResetResponse struct {
	Status string `json:"status"`
}

// ServeHTTP deletes all turns.
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.sessions.Reset(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to reset history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset history")
		return
	}

	logger.InfoContext(ctx, "conversation history cleared")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ResetResponse{Status: "reset"})
}
