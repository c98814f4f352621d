package history

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const createTableQuery = `CREATE TABLE IF NOT EXISTS calculation_history (
	id CHAR(36) NOT NULL PRIMARY KEY,
	expression TEXT NOT NULL,
	result TEXT NOT NULL,
	is_ai BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME(6) NOT NULL,
	INDEX idx_calculation_history_created_at (created_at)
)`

// DBStore implements Store using MySQL.
type DBStore struct {
	db *sqlx.DB
}

// NewDBStore creates a new DBStore.
func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

// EnsureSchema creates the history table if it does not exist yet.
func (s *DBStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("db.ExecContext(create calculation_history) > %w", err)
	}
	return nil
}

// Append inserts a new entry.
func (s *DBStore) Append(ctx context.Context, entry Entry) error {
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO calculation_history (id, expression, result, is_ai, created_at)
		VALUES (:id, :expression, :result, :is_ai, :created_at)`,
		entry); err != nil {
		return fmt.Errorf("db.NamedExecContext(insert calculation_history) > %w", err)
	}
	return nil
}

// List returns all entries, newest first. Identifiers are time-ordered so they break ties.
func (s *DBStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries,
		"SELECT id, expression, result, is_ai, created_at FROM calculation_history ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(calculation_history) > %w", err)
	}
	return entries, nil
}

// Clear removes every entry.
func (s *DBStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM calculation_history"); err != nil {
		return fmt.Errorf("db.ExecContext(delete calculation_history) > %w", err)
	}
	return nil
}
