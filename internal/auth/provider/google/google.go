package google

import (
	"context"
	"errors"

	"github.com/arellanoelden/think-piece/internal/auth/provider/openid"
)

const (
	ProviderName = "google"
	issuer       = "https://accounts.google.com"
)

// New returns the Google sign-in provider.
func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*openid.Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	return openid.New(ctx, openid.Config{
		Name:         ProviderName,
		Issuer:       issuer,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
	})
}
