package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the conversations table read by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id         BIGSERIAL PRIMARY KEY,
    text       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at);
`

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore loads history from a conversations table, oldest first.
type PostgresStore struct {
	db    DB
	pool  *pgxpool.Pool
	limit int
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing connection or pool. limit bounds the
// number of most recent conversations returned; 0 means all.
func NewPostgresStore(db DB, limit int) *PostgresStore {
	return &PostgresStore{db: db, limit: limit}
}

// OpenPostgresStore connects a pool to dsn. Close releases it.
func OpenPostgresStore(ctx context.Context, dsn string, limit int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	return &PostgresStore{db: pool, pool: pool, limit: limit}, nil
}

// Migrate creates the conversations table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("history: migrate requires an owned pool")
	}
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	query := `SELECT text FROM conversations ORDER BY created_at, id`
	var args []any
	if s.limit > 0 {
		query = `SELECT text FROM (
    SELECT text, created_at, id FROM conversations ORDER BY created_at DESC, id DESC LIMIT $1
) recent ORDER BY created_at, id`
		args = append(args, s.limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.Text)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("history: scan: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
