// Package profile keeps one users/{uid} document per authenticated identity.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/docstore"
	"github.com/arellanoelden/think-piece/internal/logger"
)

const CollectionName = "users"

var ErrProfileWrite = errors.New("profile: write failed")

// Outcome says what Upsert did with users/{uid}.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
	OutcomeFailed   Outcome = "failed"
)

type Service struct {
	users *docstore.CollectionRef
	now   func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{
		users: docstore.Collection(store, CollectionName),
		now:   time.Now,
	}
}

// Ensure creates users/{uid} from the identity when it does not exist yet
// and returns a handle to it. A nil identity returns (nil, nil) without
// touching the store.
//
// additional is merged last and wins over the identity fields. When the
// create fails the handle is still returned together with an error wrapping
// ErrProfileWrite.
func (s *Service) Ensure(
	ctx context.Context,
	id *auth.Identity,
	additional map[string]any,
) (*docstore.DocumentRef, error) {
	ref, _, err := s.Upsert(ctx, id, additional)
	return ref, err
}

// Upsert is Ensure that also reports the outcome. The outcome is empty for a
// nil identity.
func (s *Service) Upsert(
	ctx context.Context,
	id *auth.Identity,
	additional map[string]any,
) (*docstore.DocumentRef, Outcome, error) {

	if id == nil {
		return nil, "", nil
	}

	// 1. Resolve the document handle
	ref, err := s.users.Doc(id.UID)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	// 2. Skip when it is already there
	snap, err := ref.Get(ctx)
	if err != nil {
		return ref, OutcomeFailed, fmt.Errorf("profile: fetch %s: %w", ref.Path, err)
	}
	if snap.Exists {
		return ref, OutcomeExisting, nil
	}

	// 3. Insert if absent
	record := map[string]any{
		"displayName": id.DisplayName,
		"email":       id.Email,
		"photoURL":    id.PhotoURL,
		"createdAt":   s.now().UTC(),
	}
	for k, v := range additional {
		record[k] = v
	}

	err = ref.Create(ctx, record)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// lost the race to a concurrent sign-in for the same uid
		return ref, OutcomeExisting, nil
	}
	if err != nil {
		logger.Error("profile create failed", map[string]any{
			"path":  ref.Path,
			"error": err.Error(),
		})
		return ref, OutcomeFailed, fmt.Errorf("%w: %s: %w", ErrProfileWrite, ref.Path, err)
	}

	logger.Info("profile created", map[string]any{
		"uid": id.UID,
	})

	return ref, OutcomeCreated, nil
}

// Get returns the users/{uid} handle without checking that it exists.
// An empty uid returns (nil, nil).
func (s *Service) Get(uid string) (*docstore.DocumentRef, error) {
	if uid == "" {
		return nil, nil
	}

	ref, err := s.users.Doc(uid)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return ref, nil
}
