package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/auth/credentials"
	"github.com/arellanoelden/think-piece/internal/logger"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.client.SignUp(
		c.Request.Context(),
		req.Email,
		req.Password,
		req.DisplayName,
	)
	h.metrics.SignIn("signup", err)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		case errors.Is(err, credentials.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("registration failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	var additional map[string]any
	if req.DisplayName != "" {
		additional = map[string]any{"displayName": req.DisplayName}
	}

	h.setSessionCookie(c, sess)
	h.ensureProfile(c, sess.Identity, additional)

	c.JSON(http.StatusCreated, gin.H{
		"status": "registered",
		"user":   identityJSON(sess.Identity),
	})
}
