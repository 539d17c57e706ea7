package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. Used when no external
// store is configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (m *MemoryStore) Get(_ context.Context, path string) (*Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.docs[path]
	if !ok {
		return &Snapshot{Path: path}, nil
	}
	return &Snapshot{Path: path, Exists: true, Fields: CloneFields(fields)}, nil
}

func (m *MemoryStore) Set(_ context.Context, path string, fields map[string]any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[path] = CloneFields(fields)
	return nil
}

func (m *MemoryStore) Create(_ context.Context, path string, fields map[string]any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[path]; ok {
		return ErrAlreadyExists
	}
	m.docs[path] = CloneFields(fields)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
