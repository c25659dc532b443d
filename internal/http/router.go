package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fiscalchat/internal/handlers"
	"fiscalchat/internal/index"
	"fiscalchat/internal/llm"
	"fiscalchat/internal/session"
	"fiscalchat/internal/storage"
	"fiscalchat/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sessions     session.Service
	Manager      index.CorpusManager
	ChunkRepo    storage.ChunkStore
	DocumentRepo storage.DocumentStore
	VectorStore  vectorstore.VectorStore // nil in keyword mode
	LLMClient    *llm.Client
	DefaultTopK  int    // Retrieval chunk count when a chat request omits k
	IndexHTML    string // Embedded HTML content
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Attach a request-scoped logger for the handlers
	r.Use(LoggerMiddleware)

	// Add CORS middleware
	r.Use(CORS)

	// Create handlers
	chatHandler := handlers.NewChatHandler(deps.Sessions, deps.DefaultTopK)
	historyHandler := handlers.NewHistoryHandler(deps.Sessions)
	resetHandler := handlers.NewResetHandler(deps.Sessions)
	statusHandler := handlers.NewStatusHandler(deps.Manager)
	reindexHandler := handlers.NewReindexHandler(deps.Manager)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.LLMClient)
	previewHandler := handlers.NewPreviewHandler(deps.ChunkRepo, deps.DocumentRepo)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/history", historyHandler)
		r.Method(http.MethodPost, "/reset", resetHandler)
		r.Method(http.MethodGet, "/status", statusHandler)
		r.Method(http.MethodPost, "/reindex", reindexHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	// Serve chunk previews linked from chat references
	r.Method(http.MethodGet, "/documents/{id}", previewHandler)

	// Serve HTML page at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(deps.IndexHTML))
	})

	return r
}
