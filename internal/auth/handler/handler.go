package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/auth/provider"
	"github.com/arellanoelden/think-piece/internal/auth/token"
	"github.com/arellanoelden/think-piece/internal/backend"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/metrics"
	"github.com/arellanoelden/think-piece/internal/profile"
	"github.com/arellanoelden/think-piece/internal/session"
)

type Handler struct {
	client   *backend.Client
	profiles *profile.Service
	tokens   *token.Manager
	metrics  *metrics.Metrics
	cookies  session.CookieOptions
}

func NewHandler(
	client *backend.Client,
	profiles *profile.Service,
	tokens *token.Manager,
	m *metrics.Metrics,
	cookies session.CookieOptions,
) *Handler {
	return &Handler{
		client:   client,
		profiles: profiles,
		tokens:   tokens,
		metrics:  m,
		cookies:  cookies,
	}
}

// RegisterRoutes installs the public sign-in routes and the HTML templates.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(templates)

	r.GET("/signin", h.SignInPage)
	r.POST("/signin", h.SubmitSignIn)
	r.POST("/signup", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)

	for _, route := range r.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	state, challenge, err := h.startOAuth(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to start sign-in",
		})
		return
	}

	authURL, err := h.client.AuthCodeURL(providerName, state, challenge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	// CASE 1: the provider reported an error (user cancelled, consent denied)
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.clearOAuth(c)
		c.Redirect(http.StatusSeeOther, "/signin")
		return
	}

	// CASE 2: normal callback
	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}
	h.clearOAuth(c)

	sess, err := h.client.SignInWithProvider(
		c.Request.Context(),
		providerName,
		code,
		codeVerifier,
	)
	if errors.Is(err, provider.ErrUnknownProvider) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}
	h.metrics.SignIn(providerName, err)
	if err != nil {
		logger.Warn("interactive sign-in failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	h.setSessionCookie(c, sess)
	h.ensureProfile(c, sess.Identity, nil)

	logger.Info("login success", map[string]any{
		"user_id":  sess.Identity.UID,
		"provider": providerName,
		"ip":       c.ClientIP(),
	})

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	// 1. End the server-side session (best-effort)
	if sessionID := session.ReadCookie(c.Request); sessionID != "" {
		if err := h.client.SignOut(c.Request.Context(), sessionID); err != nil {
			logger.Warn("sign-out failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	// 2. Clear cookie
	session.ClearCookie(c.Writer, h.cookies)

	// 3. Idempotent response
	c.Status(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(c *gin.Context, sess *auth.Session) {
	session.SetCookie(c.Writer, sess.ID, sess.ExpiresAt, h.cookies)
}

// ensureProfile creates the users/{uid} document after a sign-in. Failures
// are logged and counted but do not fail the sign-in.
func (h *Handler) ensureProfile(c *gin.Context, id *auth.Identity, additional map[string]any) {
	_, outcome, err := h.profiles.Upsert(c.Request.Context(), id, additional)
	if outcome != "" {
		h.metrics.ProfileWrite(string(outcome))
	}
	if err != nil {
		logger.Warn("profile upsert failed, continuing sign-in", map[string]any{
			"uid":   id.UID,
			"error": err.Error(),
		})
		_ = c.Error(err)
	}
}
