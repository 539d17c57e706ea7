// Package form holds the state of the email/password sign-in form.
package form

import (
	"context"

	"github.com/arellanoelden/think-piece/internal/auth"
)

const (
	FieldEmail    = "email"
	FieldPassword = "password"

	GoogleProvider = "google"
)

// Authenticator is the part of the backend client the form talks to.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	AuthCodeURL(provider, state, challenge string) (string, error)
}

// SignIn is one form instance. It is not safe for concurrent use; the HTTP
// layer creates one per request.
type SignIn struct {
	auth     Authenticator
	email    string
	password string
}

func NewSignIn(a Authenticator) *SignIn {
	return &SignIn{auth: a}
}

// Change updates a field. Unknown field names are ignored.
func (f *SignIn) Change(field, value string) {
	switch field {
	case FieldEmail:
		f.email = value
	case FieldPassword:
		f.password = value
	}
}

func (f *SignIn) Email() string    { return f.email }
func (f *SignIn) Password() string { return f.password }

// Submit authenticates with the current field values and waits for the
// result. Both fields are empty afterwards whatever the outcome.
func (f *SignIn) Submit(ctx context.Context) (*auth.Session, error) {
	email, password := f.email, f.password
	defer f.reset()

	return f.auth.SignInWithPassword(ctx, email, password)
}

// GoogleClick returns the URL that starts the Google sign-in flow.
func (f *SignIn) GoogleClick(state, challenge string) (string, error) {
	return f.auth.AuthCodeURL(GoogleProvider, state, challenge)
}

func (f *SignIn) reset() {
	f.email = ""
	f.password = ""
}
