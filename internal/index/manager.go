package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_corpus_manager.go -package=mocks fiscalchat/internal/index CorpusManager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/documents"
	"fiscalchat/internal/retrieval"
	"fiscalchat/internal/vectorstore"
)

const (
	// ModeAdvanced retrieves by embedding similarity.
	ModeAdvanced = "advanced"
	// ModeSimple retrieves by keyword overlap.
	ModeSimple = "simple"
)

// ModelEnsurer warms up the embedding model before the capability probe.
type ModelEnsurer interface {
	EnsureLoaded(ctx context.Context, modelName string) error
}

// Stats describes the corpus and index after the last build.
type Stats struct {
	Mode         string    `json:"mode"`
	Documents    int       `json:"documents"`
	SkippedFiles int       `json:"skipped_files"`
	Chunks       int       `json:"chunks"`
	CSVRows      int       `json:"csv_rows"`
	PDFPages     int       `json:"pdf_pages"`
	Signature    string    `json:"signature"`
	CacheHit     bool      `json:"cache_hit"`
	BuiltAt      time.Time `json:"built_at"`
}

// CorpusManager defines the interface for corpus and index lifecycle
// operations.
type CorpusManager interface {
	// Ensure makes the index ready, building it on first call.
	Ensure(ctx context.Context) error
	// Active returns the retriever serving queries and the mode it implements.
	Active(ctx context.Context) (retrieval.Retriever, string, error)
	// Stats reports the corpus and index state.
	Stats(ctx context.Context) (Stats, error)
	// Rebuild reloads the data directory and rebuilds the index.
	Rebuild(ctx context.Context, force bool) (Stats, error)
}

// Manager owns the retrieval side of the application: it loads the corpus,
// decides between the semantic and keyword strategies, builds or reuses the
// vector index, and hands out the active retriever. It implements the
// CorpusManager interface.
//
// Everything happens lazily on first use, so the server can start while the
// embedding server is still coming up. The strategy is probed once per
// build; a Rebuild probes again.
type Manager struct {
	loader      *documents.Loader
	builder     *Builder
	embedder    Embedder
	modelLoader ModelEnsurer
	store       vectorstore.VectorStore
	indexDir    string
	model       string
	vectorSize  int
	mode        string // configured mode: ModeAdvanced or ModeSimple

	mu        sync.Mutex
	ready     bool
	retriever retrieval.Retriever
	stats     Stats
}

// NewManager creates a new index manager. mode is the configured retrieval
// mode; the advanced mode still falls back to simple when the embedding
// model does not answer the capability probe.
func NewManager(
	loader *documents.Loader,
	builder *Builder,
	embedder Embedder,
	modelLoader ModelEnsurer,
	store vectorstore.VectorStore,
	indexDir, model string,
	vectorSize int,
	mode string,
) *Manager {
	return &Manager{
		loader:      loader,
		builder:     builder,
		embedder:    embedder,
		modelLoader: modelLoader,
		store:       store,
		indexDir:    indexDir,
		model:       model,
		vectorSize:  vectorSize,
		mode:        mode,
	}
}

// Ensure makes the index ready, building it on first call and reusing it
// afterwards.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, false)
}

// Active returns the retriever serving queries and the mode it implements,
// building the index first when needed.
func (m *Manager) Active(ctx context.Context) (retrieval.Retriever, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLocked(ctx, false); err != nil {
		return nil, "", err
	}
	return m.retriever, m.stats.Mode, nil
}

// Stats reports the corpus and index state, building the index first when
// needed.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLocked(ctx, false); err != nil {
		return Stats{}, err
	}
	return m.stats, nil
}

// Rebuild reloads the data directory and rebuilds the index. With force the
// vector cache is discarded even when the corpus is unchanged.
func (m *Manager) Rebuild(ctx context.Context, force bool) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	if err := m.ensureLocked(ctx, force); err != nil {
		return Stats{}, err
	}
	return m.stats, nil
}

func (m *Manager) ensureLocked(ctx context.Context, force bool) error {
	if m.ready {
		return nil
	}

	logger := contextutil.LoggerFromContext(ctx)

	result, err := m.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	if err := m.builder.SaveCorpus(ctx, result); err != nil {
		return err
	}

	signature := Signature(result.Chunks)
	stats := Stats{
		Documents:    len(result.Loaded()),
		SkippedFiles: len(result.Skipped()),
		Chunks:       len(result.Chunks),
		Signature:    signature,
	}
	for _, chunk := range result.Chunks {
		switch chunk.Kind {
		case documents.KindCSVRow:
			stats.CSVRows++
		case documents.KindPDFPage:
			stats.PDFPages++
		}
	}

	mode := m.mode
	if mode == ModeAdvanced && !m.probeEmbeddings(ctx) {
		logger.WarnContext(ctx, "embedding model unavailable, falling back to keyword retrieval", "model", m.model)
		mode = ModeSimple
	}

	if mode == ModeAdvanced {
		manifest, cacheHit := m.reusableManifest(ctx, signature, len(result.Chunks), force)
		if !cacheHit {
			manifest, err = m.builder.Build(ctx, result.Chunks, signature)
			if err != nil {
				return err
			}
		}
		stats.CacheHit = cacheHit
		stats.BuiltAt = manifest.BuiltAt
		m.retriever = retrieval.NewSemanticRetriever(m.embedder, m.store, result.Chunks)
	} else {
		stats.BuiltAt = time.Now().UTC()
		m.retriever = retrieval.NewKeywordRetriever(result.Chunks)
	}

	stats.Mode = mode
	m.stats = stats
	m.ready = true

	logger.InfoContext(ctx, "index ready",
		"mode", mode,
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"cache_hit", stats.CacheHit,
	)
	return nil
}

// probeEmbeddings reports whether the embedding model answers. The model
// loader call is best effort, servers without model management endpoints
// just skip the warm-up; the embed call decides.
func (m *Manager) probeEmbeddings(ctx context.Context) bool {
	logger := contextutil.LoggerFromContext(ctx)

	if err := m.modelLoader.EnsureLoaded(ctx, m.model); err != nil {
		logger.WarnContext(ctx, "embedding model load failed", "model", m.model, "error", err)
		return false
	}
	if _, err := m.embedder.EmbedTexts(ctx, []string{"ping"}); err != nil {
		logger.WarnContext(ctx, "embedding probe failed", "model", m.model, "error", err)
		return false
	}
	return true
}

// reusableManifest loads the manifest and decides whether the stored vectors
// can serve this corpus as-is.
func (m *Manager) reusableManifest(ctx context.Context, signature string, chunkCount int, force bool) (*Manifest, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	if force {
		return nil, false
	}

	manifest, err := LoadManifest(m.indexDir)
	if err != nil {
		if errors.Is(err, ErrIndexCorrupted) {
			logger.WarnContext(ctx, "index manifest corrupted, rebuilding", "error", err)
		} else if !os.IsNotExist(err) {
			logger.WarnContext(ctx, "failed to read index manifest, rebuilding", "error", err)
		}
		return nil, false
	}

	if manifest.Signature != signature || manifest.EmbeddingModel != m.model ||
		manifest.VectorSize != m.vectorSize || manifest.ChunkCount != chunkCount {
		return nil, false
	}

	count, err := m.store.Count(ctx)
	if err != nil || count != chunkCount {
		logger.WarnContext(ctx, "vector store does not match manifest, rebuilding",
			"stored", count, "expected", chunkCount, "error", err)
		return nil, false
	}

	return manifest, true
}
