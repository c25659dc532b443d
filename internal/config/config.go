package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DataDir       string
	ScanRecursive bool
	Mode          string
	TopK          int

	LLMBaseURL string
	GroqAPIKey string
	GroqModel  string

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int

	VectorStore      string
	VectorIndexPath  string
	QdrantURL        string
	QdrantCollection string

	DBPath  string
	APIPort string

	LogLevel  slog.Level
	LogFormat string
}

// Operating modes. ModeAdvanced retrieves by embedding similarity against the
// vector index; ModeSimple retrieves by keyword overlap and needs no
// embedding server.
const (
	ModeAdvanced = "advanced"
	ModeSimple   = "simple"
)

// Vector store backends.
const (
	StoreChromem = "chromem"
	StoreQdrant  = "qdrant"
)

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DataDir: getEnv("DATA_DIR", ""),
		Mode:    strings.ToLower(getEnv("MODE", ModeAdvanced)),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.groq.com/openai"),
		GroqAPIKey: getEnv("GROQ_API_KEY", ""),
		GroqModel:  getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),

		VectorStore:      strings.ToLower(getEnv("VECTOR_STORE", StoreChromem)),
		VectorIndexPath:  getEnv("VECTOR_INDEX_PATH", "./data/index"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "fiscal_chunks"),

		DBPath:  getEnv("DB_PATH", "./data/fiscalchat.db"),
		APIPort: getEnv("API_PORT", "9000"),

		LogLevel:  parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	recursive, err := parseBoolEnv("SCAN_RECURSIVE", true)
	if err != nil {
		return nil, err
	}
	cfg.ScanRecursive = recursive

	topK, err := parseIntEnv("TOP_K", 5)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("TOP_K must be greater than 0")
	}
	cfg.TopK = topK

	// Must match the output vector size of the embeddings model
	// (all-MiniLM-L6-v2 produces 384 dimensions). If the size changes, the
	// vector index must be rebuilt.
	vectorSize, err := parseIntEnv("EMBEDDING_VECTOR_SIZE", 384)
	if err != nil {
		return nil, err
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	// Validate required fields
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR is required")
	}
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	if cfg.Mode != ModeAdvanced && cfg.Mode != ModeSimple {
		return nil, fmt.Errorf("MODE must be %q or %q, got %q", ModeAdvanced, ModeSimple, cfg.Mode)
	}
	if cfg.VectorStore != StoreChromem && cfg.VectorStore != StoreQdrant {
		return nil, fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", StoreChromem, StoreQdrant, cfg.VectorStore)
	}

	// Create the DB directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return v, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
