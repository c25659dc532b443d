package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/index"
)

// ReindexHandler handles HTTP requests for triggering a corpus rebuild.
type ReindexHandler struct {
	manager index.CorpusManager
}

// NewReindexHandler creates a new ReindexHandler.
func NewReindexHandler(manager index.CorpusManager) *ReindexHandler {
	return &ReindexHandler{manager: manager}
}

// ReindexResponse represents the response from the reindex endpoint.
type ReindexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP handles HTTP requests for triggering a corpus rebuild.
func (h *ReindexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Check for force parameter
	force := r.URL.Query().Get("force") == "true"

	if force {
		logger.InfoContext(ctx, "force rebuild triggered via API")
	} else {
		logger.InfoContext(ctx, "rebuild triggered via API")
	}

	// Trigger the rebuild in a goroutine so it doesn't block the HTTP response.
	// Use background context so the rebuild continues after the request completes.
	go func() {
		rebuildCtx := contextutil.WithLogger(context.Background(), logger)
		stats, err := h.manager.Rebuild(rebuildCtx, force)
		if err != nil {
			logger.ErrorContext(rebuildCtx, "rebuild completed with errors", "error", err)
			return
		}
		logger.InfoContext(rebuildCtx, "rebuild completed successfully",
			"documents", stats.Documents,
			"chunks", stats.Chunks,
			"cache_hit", stats.CacheHit)
	}()

	// Return immediately with accepted status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	message := "Rebuild started. Check server logs for progress."
	if force {
		message = "Force rebuild started (existing index discarded). Check server logs for progress."
	}
	_ = json.NewEncoder(w).Encode(ReindexResponse{
		Message: message,
		Status:  "accepted",
	})
}
