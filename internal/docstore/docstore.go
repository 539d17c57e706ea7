// Package docstore is a minimal document database abstraction: documents
// are addressed by slash-separated paths ("users/u1") and hold a flat map of
// fields. Backends live in the sub-packages.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("docstore: invalid document path")
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Snapshot is the state of a document at read time.
type Snapshot struct {
	Path   string
	Exists bool
	Fields map[string]any
}

// Store is implemented by every backend. Implementations must be safe for
// concurrent use. Get on a missing document returns a snapshot with
// Exists=false and a nil error.
type Store interface {
	Get(ctx context.Context, path string) (*Snapshot, error)
	Set(ctx context.Context, path string, fields map[string]any) error
	// Create writes the document only if it does not exist yet and returns
	// ErrAlreadyExists otherwise.
	Create(ctx context.Context, path string, fields map[string]any) error
	Close() error
}

// DocumentRef is a handle to a document path. Obtaining one performs no I/O.
type DocumentRef struct {
	Path  string
	store Store
}

// Doc returns a handle for path after validating it.
func Doc(s Store, path string) (*DocumentRef, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return &DocumentRef{Path: path, store: s}, nil
}

// ID returns the last path segment.
func (d *DocumentRef) ID() string {
	return d.Path[strings.LastIndex(d.Path, "/")+1:]
}

func (d *DocumentRef) Get(ctx context.Context) (*Snapshot, error) {
	return d.store.Get(ctx, d.Path)
}

func (d *DocumentRef) Exists(ctx context.Context) (bool, error) {
	snap, err := d.store.Get(ctx, d.Path)
	if err != nil {
		return false, err
	}
	return snap.Exists, nil
}

func (d *DocumentRef) Set(ctx context.Context, fields map[string]any) error {
	return d.store.Set(ctx, d.Path, fields)
}

func (d *DocumentRef) Create(ctx context.Context, fields map[string]any) error {
	return d.store.Create(ctx, d.Path, fields)
}

// CollectionRef addresses the documents directly under a collection name.
type CollectionRef struct {
	Name  string
	store Store
}

func Collection(s Store, name string) *CollectionRef {
	return &CollectionRef{Name: name, store: s}
}

// Doc returns the handle for name/id. id is a single segment; nested paths
// go through the package-level Doc.
func (c *CollectionRef) Doc(id string) (*DocumentRef, error) {
	if strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: id %q contains '/'", ErrInvalidPath, id)
	}
	return Doc(c.store, c.Name+"/"+id)
}

// ValidatePath accepts paths made of an even number of non-empty segments,
// i.e. collection/doc[/collection/doc...].
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return fmt.Errorf("%w: %q does not name a document", ErrInvalidPath, path)
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return nil
}

// CloneFields returns a shallow copy so callers cannot mutate stored state.
func CloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
