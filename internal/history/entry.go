// Package history stores completed calculations, most recent first.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=entry.go -destination=../mocks/history/mock_store.go -package=mock_history

// Entry is one completed calculation. Entries are never modified once created.
type Entry struct {
	ID         string    `db:"id" yaml:"id" json:"id"`
	Expression string    `db:"expression" yaml:"expression" json:"expression"`
	Result     string    `db:"result" yaml:"result" json:"result"`
	CreatedAt  time.Time `db:"created_at" yaml:"created_at" json:"created_at"`
	IsAI       bool      `db:"is_ai" yaml:"is_ai" json:"is_ai"`
}

// NewEntry creates an entry with a time-ordered identifier.
func NewEntry(expression, result string, isAI bool, createdAt time.Time) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("uuid.NewV7() > %w", err)
	}
	return Entry{
		ID:         id.String(),
		Expression: expression,
		Result:     result,
		CreatedAt:  createdAt,
		IsAI:       isAI,
	}, nil
}

// Store is an append-only history list that can only be cleared as a whole.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// List returns entries ordered from the most recent to the oldest.
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}
