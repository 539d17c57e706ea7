package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/auth/token"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/session"
)

type fakeSessions map[string]*session.Session

func (f fakeSessions) Session(_ context.Context, id string) (*session.Session, error) {
	return f[id], nil
}

func newTestMiddleware(t *testing.T) (*AuthMiddleware, string) {
	t.Helper()
	tokens := token.NewManager("secret", time.Hour, "test")
	tok, _, err := tokens.Generate(&auth.Identity{UID: "token-user"})
	if err != nil {
		t.Fatal(err)
	}
	sessions := fakeSessions{"sid": {SessionID: "sid", UserID: "cookie-user"}}
	return NewAuthMiddleware(sessions, tokens), tok
}

func TestAuthenticate(t *testing.T) {
	mw, tok := newTestMiddleware(t)

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		want   string
	}{
		{name: "nothing", want: ""},
		{name: "bearer", header: "Bearer " + tok, want: "token-user"},
		{name: "bad bearer", header: "Bearer nope", want: ""},
		{name: "basic auth", header: "Basic abc", want: ""},
		{name: "cookie", cookie: &http.Cookie{Name: session.CookieName, Value: "sid"}, want: "cookie-user"},
		{name: "secure cookie", cookie: &http.Cookie{Name: session.SecureCookieName, Value: "sid"}, want: "cookie-user"},
		{name: "unknown session", cookie: &http.Cookie{Name: session.CookieName, Value: "other"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := mw.Authenticate(req); got != tt.want {
				t.Errorf("Authenticate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	mw, tok := newTestMiddleware(t)

	var seen string
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "token-user" {
		t.Errorf("status = %d, user = %q", rec.Code, seen)
	}
}

func TestGinAdapters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw, _ := newTestMiddleware(t)

	r := gin.New()
	handler := func(c *gin.Context) {
		fromCtx, _ := UserIDFromContext(c.Request.Context())
		c.String(http.StatusOK, c.GetString(ContextUserID)+"|"+fromCtx)
	}
	r.GET("/api", GinRequireAuth(mw), handler)
	r.GET("/web", GinRedirectUnauthenticated(mw, "/signin"), handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("api status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/signin" {
		t.Errorf("web status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sid"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "cookie-user|cookie-user" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger.SetOutput(logger.New(&buf, "debug", "json"))
	t.Cleanup(func() { logger.SetOutput(logger.New(&bytes.Buffer{}, "info", "json")) })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	if !strings.Contains(out, `"msg":"request rejected"`) || !strings.Contains(out, `"status":404`) {
		t.Errorf("log output = %s", out)
	}
}
