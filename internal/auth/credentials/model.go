package credentials

import (
	"github.com/arellanoelden/think-piece/internal/auth"
)

const providerPassword = "password"

// account is a users row joined with its credential.
type account struct {
	UserID        string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	PasswordHash  string
	HashVersion   string
}

func (a account) identity() *auth.Identity {
	return &auth.Identity{
		UID:           a.UserID,
		DisplayName:   a.DisplayName,
		Email:         a.Email,
		PhotoURL:      a.PhotoURL,
		Provider:      providerPassword,
		EmailVerified: a.EmailVerified,
	}
}
