package handlers

import (
	"encoding/json"
	"net/http"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/index"
)

// StatusHandler reports the state of the loaded corpus and index.
type StatusHandler struct {
	manager index.CorpusManager
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(manager index.CorpusManager) *StatusHandler {
	return &StatusHandler{manager: manager}
}

// swagger:route GET /api/status status getStatus
// Returns counts and metadata for the loaded corpus.
// responses:
//   200: statusResponse
//   500: errorResponse

// ServeHTTP returns the current index statistics.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := h.manager.Stats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read index stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read index status")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
