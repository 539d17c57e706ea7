package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

// Identity is the authenticated user as issued by the auth backend.
// It is immutable from this service's point of view.
type Identity struct {
	UID           string
	DisplayName   string
	Email         string
	PhotoURL      string
	Provider      string // "password", "google", ...
	EmailVerified bool
}

// ExternalIdentity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type ExternalIdentity struct {
	Provider      string // e.g. "google"
	Subject       string // provider-scoped unique user identifier (sub)
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Session is the outcome of a successful sign-in.
type Session struct {
	ID        string
	Identity  *Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}
