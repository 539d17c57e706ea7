// Package sqlite provides a SQLite-backed implementation of docstore.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedriver "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/arellanoelden/think-piece/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    path TEXT PRIMARY KEY,
    fields TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single connection: concurrent writers queue on the pool
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT fields FROM documents WHERE path = ?", path,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &docstore.Snapshot{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return &docstore.Snapshot{Path: path, Exists: true, Fields: fields}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at
	`, path, data, now, now)
	if err != nil {
		return fmt.Errorf("failed to set document %s: %w", path, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (path, fields, created_at, updated_at) VALUES (?, ?, ?, ?)",
		path, data, now, now,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return docstore.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create document %s: %w", path, err)
	}
	return nil
}

func encode(path string, fields map[string]any) (string, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return "", err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document %s: %w", path, err)
	}
	return string(data), nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
