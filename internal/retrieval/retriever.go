package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks fiscalchat/internal/retrieval Retriever

import (
	"context"

	"fiscalchat/internal/documents"
)

// Result is one retrieved chunk with its relevance score. Scores are only
// comparable within a single strategy: cosine similarity for the semantic
// strategy, term-overlap counts for the keyword strategy.
type Result struct {
	Chunk documents.Chunk
	Score float32
}

// Retriever finds the chunks most relevant to a question.
type Retriever interface {
	// Retrieve returns up to k chunks ordered by descending relevance.
	// Ties keep the original corpus order.
	Retrieve(ctx context.Context, question string, k int) ([]Result, error)
	// Name identifies the strategy in logs and status reports.
	Name() string
}
