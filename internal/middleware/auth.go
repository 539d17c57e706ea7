package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arellanoelden/think-piece/internal/auth/token"
	"github.com/arellanoelden/think-piece/internal/session"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// SessionSource looks up live sessions; it returns nil for unknown or
// expired ids.
type SessionSource interface {
	Session(ctx context.Context, sessionID string) (*session.Session, error)
}

type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// AuthMiddleware accepts either a bearer token or a session cookie.
type AuthMiddleware struct {
	Sessions SessionSource
	Tokens   TokenValidator
}

func NewAuthMiddleware(sessions SessionSource, tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions, Tokens: tokens}
}

// Authenticate returns the user id behind r, or "" when r carries no valid
// credential.
func (a *AuthMiddleware) Authenticate(r *http.Request) string {
	// 1. Bearer token
	if header := r.Header.Get("Authorization"); header != "" {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || a.Tokens == nil {
			return ""
		}
		claims, err := a.Tokens.Validate(strings.TrimSpace(raw))
		if err != nil {
			return ""
		}
		return claims.UserID
	}

	// 2. Session cookie
	sessionID := session.ReadCookie(r)
	if sessionID == "" {
		return ""
	}

	sess, err := a.Sessions.Session(r.Context(), sessionID)
	if err != nil || sess == nil {
		return ""
	}
	return sess.UserID
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.Authenticate(r)
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
