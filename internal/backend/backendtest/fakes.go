// Package backendtest provides in-process doubles for the account backend
// and interactive providers.
package backendtest

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/arellanoelden/think-piece/internal/auth"
)

// Accounts is an Accounts implementation keyed by email.
type Accounts struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*auth.Identity
	// Err, when set, is returned by every call.
	Err   error
	Calls int
}

func NewAccounts() *Accounts {
	return &Accounts{
		passwords: make(map[string]string),
		users:     make(map[string]*auth.Identity),
	}
}

// Add registers a user directly.
func (a *Accounts) Add(id auth.Identity, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := strings.ToLower(id.Email)
	a.passwords[key] = password
	a.users[key] = &id
}

func (a *Accounts) Authenticate(_ context.Context, email, password string) (*auth.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++

	if a.Err != nil {
		return nil, a.Err
	}
	key := strings.ToLower(email)
	if pw, ok := a.passwords[key]; !ok || pw != password {
		return nil, auth.ErrInvalidCredentials
	}
	id := *a.users[key]
	return &id, nil
}

func (a *Accounts) Register(_ context.Context, email, password, displayName string) (*auth.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++

	if a.Err != nil {
		return nil, a.Err
	}
	if len(password) < 8 {
		return nil, errors.New("password too short")
	}
	key := strings.ToLower(email)
	if _, ok := a.users[key]; ok {
		return nil, auth.ErrAlreadyRegistered
	}

	id := &auth.Identity{
		UID:         "uid-" + key,
		Email:       email,
		DisplayName: displayName,
		Provider:    "password",
	}
	a.passwords[key] = password
	a.users[key] = id

	out := *id
	return &out, nil
}

// Provider is an interactive provider that accepts a single code.
type Provider struct {
	ProviderName string
	Code         string
	Identity     auth.ExternalIdentity

	mu           sync.Mutex
	LastVerifier string
}

func (p *Provider) Name() string { return p.ProviderName }

func (p *Provider) AuthCodeURL(state, codeChallenge string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	return "https://" + p.ProviderName + ".example/authorize?" + q.Encode()
}

func (p *Provider) ExchangeCode(_ context.Context, code, codeVerifier string) (*auth.ExternalIdentity, error) {
	p.mu.Lock()
	p.LastVerifier = codeVerifier
	p.mu.Unlock()

	if code != p.Code {
		return nil, errors.New("invalid authorization code")
	}
	ext := p.Identity
	ext.Provider = p.ProviderName
	return &ext, nil
}

// Resolver maps every external identity to uid "ext-<subject>".
type Resolver struct{}

func (Resolver) Resolve(_ context.Context, ext *auth.ExternalIdentity) (*auth.Identity, error) {
	if ext == nil {
		return nil, errors.New("identity is nil")
	}
	return &auth.Identity{
		UID:           "ext-" + ext.Subject,
		DisplayName:   ext.Name,
		Email:         ext.Email,
		PhotoURL:      ext.Picture,
		Provider:      ext.Provider,
		EmailVerified: ext.EmailVerified,
	}, nil
}
