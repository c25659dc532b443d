package vectorstore

import "context"

// Point represents an embedded chunk stored in the index.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]string
}

// SearchResult represents one nearest-neighbour hit.
type SearchResult struct {
	ID    string
	Score float32
	Meta  map[string]string
}

// VectorStore is the persisted index behind semantic retrieval. The default
// implementation keeps everything on local disk (chromem); a remote Qdrant
// backend can be selected by configuration.
type VectorStore interface {
	// Upsert inserts or updates points. Upserting an existing ID replaces
	// it, so rebuilding from an identical chunk set leaves the index
	// unchanged.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the k nearest points to query, ordered by descending
	// similarity. A k larger than the stored point count is clamped, never
	// an error; k <= 0 returns no results.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)

	// Count reports the number of stored points.
	Count(ctx context.Context) (int, error)

	// Reset removes every stored point.
	Reset(ctx context.Context) error
}
