package provider

import (
	"context"

	"github.com/arellanoelden/think-piece/internal/auth"
)

// OAuthProvider is an interactive sign-in provider. Implementations return
// identity facts only and must not create users or sessions.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the authorization URL the browser is sent to.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode redeems the authorization code and returns the verified
	// external identity.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.ExternalIdentity, error)
}
