// Package postgres stores documents as JSONB rows through a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arellanoelden/think-piece/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    path TEXT PRIMARY KEY,
    fields JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists documents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, verifies the connection and ensures the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres docstore: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close drains the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	const query = `SELECT fields FROM documents WHERE path = $1`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &docstore.Snapshot{Path: path}, nil
		}
		return nil, fmt.Errorf("postgres docstore: get %s: %w", path, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("postgres docstore: decode %s: %w", path, err)
	}
	return &docstore.Snapshot{Path: path, Exists: true, Fields: fields}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO documents (path, fields)
VALUES ($1, $2)
ON CONFLICT (path) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()
`
	if _, err := s.pool.Exec(ctx, query, path, data); err != nil {
		return fmt.Errorf("postgres docstore: set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO documents (path, fields)
VALUES ($1, $2)
ON CONFLICT (path) DO NOTHING
`
	tag, err := s.pool.Exec(ctx, query, path, data)
	if err != nil {
		return fmt.Errorf("postgres docstore: create %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrAlreadyExists
	}
	return nil
}

func encode(path string, fields map[string]any) ([]byte, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("postgres docstore: encode %s: %w", path, err)
	}
	return data, nil
}
