// Package fireauth uses Firebase Authentication as the account backend:
// password sign-in through the Identity Toolkit API, user management
// through the Admin SDK.
package fireauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/logger"
)

const providerPassword = "password"

// UserClient is the subset of the Admin SDK auth client used here.
// *fbauth.Client satisfies it.
type UserClient interface {
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*fbauth.UserRecord, error)
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
}

// Error codes the Identity Toolkit returns for a wrong email/password pair.
var invalidCredentialCodes = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"INVALID_EMAIL":             true,
	"USER_DISABLED":             true,
	"MISSING_PASSWORD":          true,
}

// Accounts verifies and registers email/password users in Firebase.
type Accounts struct {
	relyingParty *identitytoolkit.RelyingpartyService
	users        UserClient
}

// NewAccounts builds the Identity Toolkit client for the web apiKey. Extra
// options are passed to the client (endpoint overrides in tests).
func NewAccounts(
	ctx context.Context,
	apiKey string,
	users UserClient,
	opts ...option.ClientOption,
) (*Accounts, error) {

	if apiKey == "" {
		return nil, errors.New("fireauth: api key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("fireauth: identity toolkit client: %w", err)
	}

	return &Accounts{
		relyingParty: svc.Relyingparty,
		users:        users,
	}, nil
}

// Authenticate signs in with email and password.
func (a *Accounts) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*auth.Identity, error) {

	resp, err := a.relyingParty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if isInvalidCredentials(err) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fireauth: verify password: %w", err)
	}

	id := &auth.Identity{
		UID:         resp.LocalId,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
		PhotoURL:    resp.PhotoUrl,
		Provider:    providerPassword,
	}

	// The sign-in response does not say whether the email is verified.
	if a.users != nil {
		rec, err := a.users.GetUser(ctx, resp.LocalId)
		if err != nil {
			logger.Warn("firebase user lookup failed", map[string]any{
				"uid":   resp.LocalId,
				"error": err.Error(),
			})
		} else {
			fillFromRecord(id, rec)
		}
	}

	return id, nil
}

// Register creates a Firebase user with a password.
func (a *Accounts) Register(
	ctx context.Context,
	email string,
	password string,
	displayName string,
) (*auth.Identity, error) {

	if a.users == nil {
		return nil, errors.New("fireauth: registration needs the admin client")
	}

	params := (&fbauth.UserToCreate{}).
		Email(strings.TrimSpace(email)).
		Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	rec, err := a.users.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, auth.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("fireauth: create user: %w", err)
	}

	id := &auth.Identity{Provider: providerPassword}
	fillFromRecord(id, rec)
	return id, nil
}

func isInvalidCredentials(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	// messages look like "INVALID_PASSWORD" or "CODE : detail"
	code, _, _ := strings.Cut(gerr.Message, " ")
	return invalidCredentialCodes[code]
}

func fillFromRecord(id *auth.Identity, rec *fbauth.UserRecord) {
	if rec == nil {
		return
	}
	id.EmailVerified = rec.EmailVerified
	if rec.UserInfo == nil {
		return
	}
	id.UID = rec.UID
	id.Email = rec.Email
	id.DisplayName = rec.DisplayName
	id.PhotoURL = rec.PhotoURL
}
