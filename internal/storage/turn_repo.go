package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_turn_store.go -package=mocks fiscalchat/internal/storage TurnStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnStore defines the interface for chat history storage operations.
type TurnStore interface {
	// Append stores a turn at the end of the conversation, assigning its
	// ID, sequence number and timestamp.
	Append(ctx context.Context, turn *TurnRecord) error
	// List returns all turns ordered by sequence number.
	List(ctx context.Context) ([]TurnRecord, error)
	// Reset deletes the whole conversation history.
	Reset(ctx context.Context) error
	// Count reports the number of stored turns.
	Count(ctx context.Context) (int, error)
}

// TurnRepo provides methods for chat history operations.
// It implements the TurnStore interface.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a new TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// Append stores a turn at the end of the conversation. It assigns the next
// sequence number; callers must serialize writes for the numbers to stay
// gapless.
func (r *TurnRepo) Append(ctx context.Context, turn *TurnRecord) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	turn.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM turns").Scan(&turn.Seq)
	if err != nil {
		return fmt.Errorf("failed to compute next turn sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO turns (id, seq, question, answer, error, mode, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		turn.ID, turn.Seq, turn.Question, turn.Answer, turn.ErrorMsg, turn.Mode,
		turn.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return nil
}

// List returns all turns ordered by sequence number.
// Returns an empty slice if the conversation is empty (not an error).
func (r *TurnRepo) List(ctx context.Context) ([]TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, seq, question, answer, error, mode, created_at FROM turns ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var turns []TurnRecord
	for rows.Next() {
		var turn TurnRecord
		var createdAtStr string
		if err := rows.Scan(&turn.ID, &turn.Seq, &turn.Question, &turn.Answer, &turn.ErrorMsg, &turn.Mode, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		turn.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}

		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return turns, nil
}

// Reset deletes the whole conversation history.
func (r *TurnRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM turns")
	if err != nil {
		return fmt.Errorf("failed to reset turns: %w", err)
	}
	return nil
}

// Count reports the number of stored turns.
func (r *TurnRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}
