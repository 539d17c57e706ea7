// Package redisstore stores documents as JSON strings in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arellanoelden/think-piece/internal/docstore"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	prefix string
}

var _ docstore.Store = (*Store)(nil)

// New creates a Redis-backed document store.
func New(client *redis.Client) *Store {
	return &Store{
		client: client,
		prefix: "doc:",
	}
}

func (s *Store) key(path string) string {
	return s.prefix + path
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, s.key(path)).Result()
	if errors.Is(err, redis.Nil) {
		return &docstore.Snapshot{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", path, err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(val), &fields); err != nil {
		return nil, fmt.Errorf("redisstore: failed to unmarshal %s: %w", path, err)
	}
	return &docstore.Snapshot{Path: path, Exists: true, Fields: fields}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(path), data, 0).Err()
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) error {
	data, err := encode(path, fields)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.key(path), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redisstore: create %s: %w", path, err)
	}
	if !ok {
		return docstore.ErrAlreadyExists
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

func encode(path string, fields map[string]any) ([]byte, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("redisstore: failed to marshal %s: %w", path, err)
	}
	return data, nil
}
