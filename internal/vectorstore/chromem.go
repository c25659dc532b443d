package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"fiscalchat/internal/contextutil"
)

// ChromemStore implements VectorStore on top of chromem-go, an embedded
// vector database persisted under a local directory. This is the default
// backend: no external service to run.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemStore opens (or creates) the persisted database at path and
// binds the named collection. Data written by a previous run is loaded back
// from disk here.
func NewChromemStore(path, collection string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index at %s: %w", path, err)
	}

	// Documents always carry precomputed embeddings, so no embedding
	// function is registered on the collection.
	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	return &ChromemStore{db: db, collection: col, name: collection}, nil
}

// Upsert inserts or updates points. Chunk text is not stored here; the
// index keeps only IDs, vectors and flat metadata.
func (s *ChromemStore) Upsert(ctx context.Context, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, point := range points {
		docs = append(docs, chromem.Document{
			ID:        point.ID,
			Metadata:  point.Meta,
			Embedding: point.Vec,
			// chromem requires non-empty content or embedding; the
			// embedding is always set, content stays in SQLite
			Content: " ",
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "Failed to upsert points", "collection", s.name, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "Upserted points", "collection", s.name, "count", len(points))
	return nil
}

// Search returns the k nearest stored points by cosine similarity.
func (s *ChromemStore) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	count := s.collection.Count()
	if k <= 0 || count == 0 {
		return nil, nil
	}
	// chromem rejects queries asking for more results than stored documents
	if k > count {
		k = count
	}

	hits, err := s.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to search points", "collection", s.name, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			ID:    hit.ID,
			Score: hit.Similarity,
			Meta:  hit.Metadata,
		})
	}

	return results, nil
}

// Count reports the number of stored points.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Reset drops the collection and recreates it empty.
func (s *ChromemStore) Reset(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", s.name, err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection %s: %w", s.name, err)
	}
	s.collection = col

	logger.InfoContext(ctx, "Vector index reset", "collection", s.name)
	return nil
}
