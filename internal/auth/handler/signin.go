package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/form"
	"github.com/arellanoelden/think-piece/internal/logger"
)

const (
	msgInvalidCredentials = "Invalid email or password."
	msgUnavailable        = "Sign-in is unavailable right now. Please try again."
	msgGoogleDisabled     = "Google sign-in is not available."
)

type signInPage struct {
	Email          string
	Password       string
	Error          string
	GoogleEnabled  bool
	OtherProviders []string
}

func (h *Handler) SignInPage(c *gin.Context) {
	h.renderSignIn(c, http.StatusOK, form.NewSignIn(h.client), "")
}

// SubmitSignIn handles both buttons of the sign-in form.
func (h *Handler) SubmitSignIn(c *gin.Context) {
	f := form.NewSignIn(h.client)

	if c.PostForm("action") == form.GoogleProvider {
		h.googleClick(c, f)
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	for field, values := range c.Request.PostForm {
		if len(values) > 0 {
			f.Change(field, values[0])
		}
	}

	sess, err := f.Submit(c.Request.Context())
	h.metrics.SignIn("password", err)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.renderSignIn(c, http.StatusUnauthorized, f, msgInvalidCredentials)
			return
		}
		logger.Error("password sign-in failed", map[string]any{
			"error": err.Error(),
		})
		h.renderSignIn(c, http.StatusBadGateway, f, msgUnavailable)
		return
	}

	h.setSessionCookie(c, sess)
	h.ensureProfile(c, sess.Identity, nil)

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) googleClick(c *gin.Context, f *form.SignIn) {
	state, challenge, err := h.startOAuth(c)
	if err != nil {
		h.renderSignIn(c, http.StatusInternalServerError, f, msgUnavailable)
		return
	}

	authURL, err := f.GoogleClick(state, challenge)
	if err != nil {
		h.renderSignIn(c, http.StatusNotFound, f, msgGoogleDisabled)
		return
	}

	c.Redirect(http.StatusSeeOther, authURL)
}

func (h *Handler) renderSignIn(c *gin.Context, status int, f *form.SignIn, msg string) {
	page := signInPage{
		Email:    f.Email(),
		Password: f.Password(),
		Error:    msg,
	}
	for _, name := range h.client.Providers() {
		if name == form.GoogleProvider {
			page.GoogleEnabled = true
			continue
		}
		page.OtherProviders = append(page.OtherProviders, name)
	}

	c.HTML(status, "signin.html", page)
}
