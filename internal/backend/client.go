// Package backend is the authentication client the rest of the service is
// built on. It is constructed once at startup and passed to the form,
// handlers and middleware.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/auth/provider"
	"github.com/arellanoelden/think-piece/internal/auth/resolver"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/session"
)

// Accounts verifies and registers email/password users.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Identity, error)
	Register(ctx context.Context, email, password, displayName string) (*auth.Identity, error)
}

type Options struct {
	Accounts   Accounts
	Providers  *provider.Registry
	Resolver   resolver.Resolver
	Sessions   session.Store
	SessionTTL time.Duration
}

type Client struct {
	accounts   Accounts
	providers  *provider.Registry
	resolver   resolver.Resolver
	sessions   session.Store
	sessionTTL time.Duration
	now        func() time.Time
}

func New(opts Options) (*Client, error) {
	if opts.Accounts == nil || opts.Sessions == nil {
		return nil, errors.New("backend: accounts and sessions are required")
	}
	if opts.Providers == nil {
		opts.Providers = provider.NewRegistry()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	return &Client{
		accounts:   opts.Accounts,
		providers:  opts.Providers,
		resolver:   opts.Resolver,
		sessions:   opts.Sessions,
		sessionTTL: opts.SessionTTL,
		now:        time.Now,
	}, nil
}

// Providers returns the names of the configured interactive providers.
func (c *Client) Providers() []string {
	return c.providers.Names()
}

// SignInWithPassword verifies the credentials and opens a session.
// Blank input fails with auth.ErrInvalidCredentials without a backend call.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	id, err := c.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.openSession(ctx, id)
}

// SignUp registers a new account and opens a session for it.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*auth.Session, error) {
	id, err := c.accounts.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	return c.openSession(ctx, id)
}

// AuthCodeURL returns the authorization URL of the named provider.
func (c *Client) AuthCodeURL(providerName, state, challenge string) (string, error) {
	p, err := c.providers.Get(providerName)
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state, challenge), nil
}

// SignInWithProvider completes an interactive sign-in: it redeems the code,
// maps the external identity to a user and opens a session.
func (c *Client) SignInWithProvider(
	ctx context.Context,
	providerName string,
	code string,
	codeVerifier string,
) (*auth.Session, error) {

	p, err := c.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	if c.resolver == nil {
		return nil, errors.New("backend: no identity resolver configured")
	}

	ext, err := p.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return nil, err
	}

	id, err := c.resolver.Resolve(ctx, ext)
	if err != nil {
		return nil, fmt.Errorf("backend: resolve %s identity: %w", providerName, err)
	}
	return c.openSession(ctx, id)
}

// SignOut ends the session. Unknown or empty ids are not an error.
func (c *Client) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return c.sessions.Delete(ctx, sessionID)
}

// Session returns the live session for sessionID, or nil when it is unknown
// or expired.
func (c *Client) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := c.sessions.Get(ctx, sessionID)
	if err != nil || sess == nil {
		return nil, err
	}

	if sess.Expired(c.now()) {
		_ = c.sessions.Delete(ctx, sessionID)
		return nil, nil
	}
	return sess, nil
}

func (c *Client) openSession(ctx context.Context, id *auth.Identity) (*auth.Session, error) {
	if id == nil || id.UID == "" {
		return nil, errors.New("backend: sign-in returned no user")
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	sess := session.Session{
		SessionID: sessionID,
		UserID:    id.UID,
		Provider:  id.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(c.sessionTTL),
	}

	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("backend: persist session: %w", err)
	}

	logger.Info("session opened", map[string]any{
		"user_id":  id.UID,
		"provider": id.Provider,
	})

	return &auth.Session{
		ID:        sessionID,
		Identity:  id,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}
