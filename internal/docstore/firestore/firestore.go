// Package firestore adapts a Cloud Firestore client to docstore.Store.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arellanoelden/think-piece/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

type Store struct {
	client *firestore.Client
}

// New wraps an already configured client. The store owns it from here on
// and closes it in Close.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ref(path string) (*firestore.DocumentRef, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidPath, path)
	}
	return ref, nil
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	ref, err := s.ref(path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &docstore.Snapshot{Path: path}, nil
		}
		return nil, fmt.Errorf("firestore: get %s: %w", path, err)
	}

	return &docstore.Snapshot{Path: path, Exists: snap.Exists(), Fields: snap.Data()}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, fields); err != nil {
		return fmt.Errorf("firestore: set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fields); err != nil {
		return createError(path, err)
	}
	return nil
}

func createError(path string, err error) error {
	if status.Code(err) == codes.AlreadyExists {
		return docstore.ErrAlreadyExists
	}
	return fmt.Errorf("firestore: create %s: %w", path, err)
}
