package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"path/filepath"

	"fiscalchat/internal/config"
	"fiscalchat/internal/documents"
	"fiscalchat/internal/http"
	"fiscalchat/internal/index"
	"fiscalchat/internal/llm"
	"fiscalchat/internal/rag"
	"fiscalchat/internal/session"
	"fiscalchat/internal/storage"
	"fiscalchat/internal/vectorstore"
	"fiscalchat/internal/web"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API provides RAG (Retrieval-Augmented Generation) chat over a folder of
// fiscal documents: CSV exports of notas fiscais and PDF files.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: FiscalChat API
//   description: |
//     RAG (Retrieval-Augmented Generation) chat API for querying fiscal documents.
//     CSV rows and PDF pages from the data folder are indexed and used as context
//     for answering questions in Portuguese through the Groq API.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	turnRepo := storage.NewTurnRepo(db)

	ctx := context.Background()

	// The embedding stack only exists in advanced mode. In simple mode
	// retrieval is keyword based and runs straight off SQLite.
	var (
		vectorStore vectorstore.VectorStore
		embedder    index.Embedder
		modelLoader index.ModelEnsurer
	)
	if cfg.Mode == config.ModeAdvanced {
		switch cfg.VectorStore {
		case config.StoreQdrant:
			qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingVectorSize)
			if err != nil {
				log.Fatalf("Failed to create Qdrant client: %v", err)
			}
			// Ensure collection exists with correct vector size
			if err := qdrantStore.EnsureCollection(ctx); err != nil {
				log.Fatalf("Failed to ensure Qdrant collection: %v", err)
			}
			slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)
			vectorStore = qdrantStore
		default:
			chromemStore, err := vectorstore.NewChromemStore(filepath.Join(cfg.VectorIndexPath, "chromem"), cfg.QdrantCollection)
			if err != nil {
				log.Fatalf("Failed to open vector index: %v", err)
			}
			slog.Info("Embedded vector index ready", "path", cfg.VectorIndexPath, "collection", cfg.QdrantCollection)
			vectorStore = chromemStore
		}

		embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, "", cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
		modelLoader = llm.NewModelLoader(cfg.EmbeddingBaseURL)
	}

	// Create the corpus manager over the loading and indexing pipeline
	loader := documents.NewLoader(cfg.DataDir, cfg.ScanRecursive)
	builder := index.NewBuilder(embedder, vectorStore, docRepo, chunkRepo, cfg.VectorIndexPath, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
	manager := index.NewManager(loader, builder, embedder, modelLoader, vectorStore, cfg.VectorIndexPath, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize, cfg.Mode)
	slog.Info("Corpus manager initialized", "data_dir", cfg.DataDir, "mode", cfg.Mode)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.GroqAPIKey, cfg.GroqModel)

	// Create RAG engine and the conversation service on top of it
	ragEngine := rag.NewEngine(manager, llmClient)
	sessions := session.NewService(ragEngine, turnRepo)
	slog.Info("RAG engine initialized", "model", cfg.GroqModel)

	// Create router with dependencies
	deps := &http.Deps{
		Sessions:     sessions,
		Manager:      manager,
		ChunkRepo:    chunkRepo,
		DocumentRepo: docRepo,
		VectorStore:  vectorStore,
		LLMClient:    llmClient,
		DefaultTopK:  cfg.TopK,
		IndexHTML:    web.IndexHTML(),
	}
	router := http.NewRouter(deps)

	// Warm up the index in background after router is ready; the first chat
	// request would otherwise pay the full build cost
	go func() {
		ensureCtx := context.Background()
		slog.Info("Starting background index preparation")
		if err := manager.Ensure(ensureCtx); err != nil {
			slog.Error("Index preparation completed with errors", "error", err)
			return
		}
		stats, err := manager.Stats(ensureCtx)
		if err != nil {
			slog.Error("Failed to read index stats", "error", err)
			return
		}
		slog.Info("Index ready",
			"mode", stats.Mode,
			"documents", stats.Documents,
			"chunks", stats.Chunks,
			"cache_hit", stats.CacheHit)
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.GroqModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
