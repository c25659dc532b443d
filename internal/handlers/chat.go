package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/session"
)

// ChatHandler handles HTTP requests for chat turns.
type ChatHandler struct {
	sessions session.Service
	defaultK int
}

// NewChatHandler creates a new ChatHandler. defaultK is the retrieval chunk
// count used when a request does not specify k.
func NewChatHandler(sessions session.Service, defaultK int) *ChatHandler {
	return &ChatHandler{sessions: sessions, defaultK: defaultK}
}

// ChatRequest represents the HTTP request payload for a chat turn.
//
// swagger:model ChatRequest
type ChatRequest struct {
	// The question, in natural language
	Question string `json:"question"`

	// Optional chunk count for retrieval; 0 selects the default
	K int `json:"k,omitempty"`
}

// ChatResponse represents the HTTP response payload for a chat turn.
// Turns that failed upstream still answer 200 with ErrorMessage set, so the
// chat renders the failure as part of the conversation.
//
// swagger:model ChatResponse
type ChatResponse struct {
	// Sequence number of the turn within the conversation
	Seq int `json:"seq"`

	// The generated answer; empty when the turn failed
	Answer string `json:"answer"`

	// User-visible failure message; empty when the turn succeeded
	ErrorMessage string `json:"error_message,omitempty"`

	// Retrieval mode that served the turn, "advanced" or "simple"
	Mode string `json:"mode"`

	// Chunks behind the answer, in retrieval order
	References []ReferenceResponse `json:"references"`

	// Timestamp of the turn
	CreatedAt time.Time `json:"created_at"`
}

// ReferenceResponse represents a reference in the HTTP response.
//
// swagger:model ReferenceResponse
type ReferenceResponse struct {
	// Stable chunk identifier, usable with GET /documents/{id}
	ChunkID string `json:"chunk_id"`

	// File path relative to the data directory
	Source string `json:"source"`

	// Chunk kind, "csv_row" or "pdf_page"
	Kind string `json:"kind"`

	// 1-based row or page number within the file
	Ordinal int `json:"ordinal"`

	// Retrieval score, comparable only within one answer
	Score float32 `json:"score"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles one chat turn.
//
// swagger:route POST /api/chat chatTurn
//
// # Ask a question about the loaded fiscal documents
//
// Runs retrieval over the CSV and PDF corpus, queries the language model and
// appends the turn to the conversation history. Upstream failures still
// produce a 200 response carrying the user-visible error message.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: The recorded turn
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Invalid request body or empty question
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	k := req.K
	if k <= 0 {
		k = h.defaultK
	}

	turn, err := h.sessions.ProcessTurn(ctx, session.TurnRequest{
		Question: req.Question,
		K:        k,
	})
	if err != nil {
		handleSessionError(w, r, err, "Failed to process chat turn")
		return
	}

	references := make([]ReferenceResponse, 0, len(turn.References))
	for _, ref := range turn.References {
		references = append(references, ReferenceResponse{
			ChunkID: ref.ChunkID,
			Source:  ref.Source,
			Kind:    ref.Kind,
			Ordinal: ref.Ordinal,
			Score:   ref.Score,
		})
	}

	resp := ChatResponse{
		Seq:          turn.Seq,
		Answer:       turn.Answer,
		ErrorMessage: turn.ErrorMsg,
		Mode:         turn.Mode,
		References:   references,
		CreatedAt:    turn.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleSessionError maps session errors to HTTP status codes.
func handleSessionError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "session error", "error", err)

	var validationErr *session.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "Validation error: "+validationErr.Error())
		return
	}
	if errors.Is(err, session.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
