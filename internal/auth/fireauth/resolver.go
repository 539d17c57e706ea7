package fireauth

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/arellanoelden/think-piece/internal/auth"
)

// Resolver maps a provider identity onto a Firebase user with the same
// email, creating the user when there is none.
type Resolver struct {
	users      UserClient
	isNotFound func(error) bool
}

func NewResolver(users UserClient) *Resolver {
	return &Resolver{
		users:      users,
		isNotFound: fbauth.IsUserNotFound,
	}
}

func (r *Resolver) Resolve(
	ctx context.Context,
	ext *auth.ExternalIdentity,
) (*auth.Identity, error) {

	if ext == nil {
		return nil, errors.New("identity is nil")
	}

	// 1. Existing user by email
	rec, err := r.users.GetUserByEmail(ctx, ext.Email)
	switch {
	case err == nil:
		if !ext.EmailVerified {
			return nil, fmt.Errorf("fireauth: unverified %s email cannot claim an existing user", ext.Provider)
		}

	case r.isNotFound(err):
		// 2. Create the user from the provider facts
		params := (&fbauth.UserToCreate{}).
			Email(ext.Email).
			EmailVerified(ext.EmailVerified)
		if ext.Name != "" {
			params = params.DisplayName(ext.Name)
		}
		if ext.Picture != "" {
			params = params.PhotoURL(ext.Picture)
		}

		rec, err = r.users.CreateUser(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("fireauth: create user: %w", err)
		}

	default:
		return nil, fmt.Errorf("fireauth: lookup user: %w", err)
	}

	id := &auth.Identity{Provider: ext.Provider}
	fillFromRecord(id, rec)

	// provider facts fill what the record lacks
	if id.DisplayName == "" {
		id.DisplayName = ext.Name
	}
	if id.PhotoURL == "" {
		id.PhotoURL = ext.Picture
	}
	return id, nil
}
