package retrieval

import (
	"context"
	"fmt"
	"sort"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/documents"
	"fiscalchat/internal/vectorstore"
)

// Embedder produces embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SemanticRetriever scores chunks by vector similarity between the question
// embedding and the indexed chunk embeddings.
type SemanticRetriever struct {
	embedder Embedder
	store    vectorstore.VectorStore
	byID     map[string]documents.Chunk
}

// NewSemanticRetriever creates a retriever over an already built index.
// The chunks must be the same corpus the index was built from; the vector
// store holds only IDs and vectors, chunk text is resolved here.
func NewSemanticRetriever(embedder Embedder, store vectorstore.VectorStore, chunks []documents.Chunk) *SemanticRetriever {
	byID := make(map[string]documents.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}
	return &SemanticRetriever{
		embedder: embedder,
		store:    store,
		byID:     byID,
	}
}

// Name identifies the strategy in logs and status reports.
func (r *SemanticRetriever) Name() string {
	return "semantic"
}

// Retrieve embeds the question and returns the k most similar chunks.
func (r *SemanticRetriever) Retrieve(ctx context.Context, question string, k int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for question")
	}

	hits, err := r.store.Search(ctx, embeddings[0], k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector index", "error", err)
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := r.byID[hit.ID]
		if !ok {
			// Point without a corpus chunk means the index is stale; skip it
			logger.WarnContext(ctx, "indexed point has no chunk", "point_id", hit.ID)
			continue
		}
		results = append(results, Result{Chunk: chunk, Score: hit.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})

	logger.DebugContext(ctx, "semantic retrieval completed", "results", len(results), "k", k)

	return results, nil
}
