package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks fiscalchat/internal/rag Engine

import (
	"context"
	"fmt"
	"strings"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/index"
	"fiscalchat/internal/llm"
)

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

const (
	defaultTopK = 5
	maxTopK     = 20

	// answerMaxTokens bounds the completion, matching the upstream
	// deployment so answers stay short and factual.
	answerMaxTokens = 1000
)

// ragEngine implements the Engine interface.
type ragEngine struct {
	manager   index.CorpusManager
	llmClient *llm.Client
}

// NewEngine creates a new RAG engine over the given corpus manager and chat
// client.
func NewEngine(manager index.CorpusManager, llmClient *llm.Client) Engine {
	return &ragEngine{
		manager:   manager,
		llmClient: llmClient,
	}
}

// Ask answers a question using the active retrieval strategy.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := req.K
	if k <= 0 {
		k = defaultTopK
	}
	if k > maxTopK {
		k = maxTopK
	}

	retriever, mode, err := e.manager.Active(ctx)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to prepare index: %w", err)
	}
	stats, err := e.manager.Stats(ctx)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to read corpus state: %w", err)
	}

	logger.InfoContext(ctx, "answering question",
		"question", req.Question,
		"k", k,
		"mode", mode,
	)

	results, err := retriever.Retrieve(ctx, req.Question, k)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResponse{}, fmt.Errorf("failed to retrieve context: %w", err)
	}

	texts := make([]string, 0, len(results))
	references := make([]Reference, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Chunk.Text)
		references = append(references, Reference{
			ChunkID: result.Chunk.ID,
			Source:  result.Chunk.Source,
			Kind:    string(result.Chunk.Kind),
			Ordinal: result.Chunk.Ordinal,
			Score:   result.Score,
		})
	}

	prompt := buildPrompt(req.Question, texts, stats.Chunks == 0)
	logger.DebugContext(ctx, "prompt assembled",
		"chunks_used", len(texts),
		"prompt_length", len(prompt),
	)

	messages := []llm.Message{{Role: "user", Content: prompt}}
	answer, err := e.llmClient.Chat(ctx, messages, llm.ChatParams{
		MaxTokens:   answerMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		logger.ErrorContext(ctx, "chat completion failed", "error", err)
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	logger.InfoContext(ctx, "question answered",
		"mode", mode,
		"chunks_used", len(results),
		"answer_length", len(answer),
	)

	return AskResponse{
		Answer:     answer,
		Mode:       mode,
		References: references,
	}, nil
}
