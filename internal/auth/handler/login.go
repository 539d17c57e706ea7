package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/logger"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is the JSON sign-in for API clients. It returns a bearer token and
// also sets the session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.client.SignInWithPassword(
		c.Request.Context(),
		req.Email,
		req.Password,
	)
	h.metrics.SignIn("password", err)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.Error("password sign-in failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign-in unavailable"})
		return
	}

	tok, expiresAt, err := h.tokens.Generate(sess.Identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	h.setSessionCookie(c, sess)
	h.ensureProfile(c, sess.Identity, nil)

	c.JSON(http.StatusOK, gin.H{
		"token":      tok,
		"token_type": "Bearer",
		"expires_at": expiresAt,
		"user":       identityJSON(sess.Identity),
	})
}

func identityJSON(id *auth.Identity) gin.H {
	return gin.H{
		"uid":            id.UID,
		"email":          id.Email,
		"display_name":   id.DisplayName,
		"photo_url":      id.PhotoURL,
		"email_verified": id.EmailVerified,
		"provider":       id.Provider,
	}
}
