package session

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks fiscalchat/internal/session Service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/llm"
	"fiscalchat/internal/rag"
	"fiscalchat/internal/storage"
)

// TurnRequest represents one question in the chat session.
type TurnRequest struct {
	Question string
	K        int
}

// TurnResponse represents the visible outcome of one turn. Exactly one of
// Answer and ErrorMsg is set; both end up in the conversation history.
type TurnResponse struct {
	Seq        int
	Answer     string
	ErrorMsg   string
	Mode       string
	References []rag.Reference
	CreatedAt  time.Time
}

// Service runs the chat session: one conversation, one turn in flight.
type Service interface {
	// ProcessTurn answers one question and appends the turn to the history.
	// Engine failures become turns with a user-visible error message, not
	// errors; only invalid input and storage failures return an error.
	ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
	// History returns all turns in chronological order.
	History(ctx context.Context) ([]storage.TurnRecord, error)
	// Reset clears the conversation history.
	Reset(ctx context.Context) error
}

// chatSession implements Service.
type chatSession struct {
	engine rag.Engine
	turns  storage.TurnStore

	// mu serializes turns so history sequence numbers stay gapless
	mu sync.Mutex
}

// NewService creates a new chat session over the given engine and history
// store.
func NewService(engine rag.Engine, turns storage.TurnStore) Service {
	return &chatSession{
		engine: engine,
		turns:  turns,
	}
}

// ProcessTurn answers one question and records the turn.
func (s *chatSession) ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in turn request")
		return TurnResponse{}, &ValidationError{
			Field:   "question",
			Message: "cannot be empty",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, askErr := s.engine.Ask(ctx, rag.AskRequest{Question: question, K: req.K})

	turn := storage.TurnRecord{
		Question: question,
		Mode:     resp.Mode,
	}
	if askErr != nil {
		// The session survives engine failures: the turn is recorded with
		// the message the chat shows instead of an answer
		turn.ErrorMsg = userMessage(askErr)
		logger.ErrorContext(ctx, "turn failed", "question", question, "error", askErr)
	} else {
		turn.Answer = resp.Answer
	}

	if err := s.turns.Append(ctx, &turn); err != nil {
		return TurnResponse{}, WrapError(err, "failed to record turn")
	}

	logger.InfoContext(ctx, "turn recorded",
		"seq", turn.Seq,
		"mode", turn.Mode,
		"failed", askErr != nil,
	)

	return TurnResponse{
		Seq:        turn.Seq,
		Answer:     turn.Answer,
		ErrorMsg:   turn.ErrorMsg,
		Mode:       turn.Mode,
		References: resp.References,
		CreatedAt:  turn.CreatedAt,
	}, nil
}

// History returns all turns in chronological order.
func (s *chatSession) History(ctx context.Context) ([]storage.TurnRecord, error) {
	turns, err := s.turns.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list turns")
	}
	return turns, nil
}

// Reset clears the conversation history.
func (s *chatSession) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.turns.Reset(ctx); err != nil {
		return WrapError(err, "failed to reset history")
	}
	return nil
}

// userMessage renders an engine failure the way the chat shows it, following
// the upstream deployment's wording.
func userMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return "Erro na comunicação com a API GROQ: limite de requisições atingido. Tente novamente em instantes."
	case errors.Is(err, llm.ErrUpstreamUnavailable):
		return fmt.Sprintf("Erro na comunicação com a API GROQ: %v", err)
	default:
		return fmt.Sprintf("Erro ao processar a pergunta: %v", err)
	}
}
