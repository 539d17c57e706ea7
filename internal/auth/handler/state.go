package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/utils"
)

const (
	stateCookieName = "__oauth_state"
	stateTTL        = 5 * time.Minute
)

// startOAuth issues the state and PKCE cookies for a new interactive
// sign-in and returns the state and code challenge.
func (h *Handler) startOAuth(c *gin.Context) (state string, challenge string, err error) {
	state, err = utils.RandomString(32)
	if err != nil {
		return "", "", err
	}

	verifier, challenge, err := generatePKCE()
	if err != nil {
		return "", "", err
	}

	h.setShortCookie(c, stateCookieName, state, stateTTL)
	h.setShortCookie(c, pkceCookieName, verifier, pkceTTL)

	return state, challenge, nil
}

// clearOAuth drops the state and PKCE cookies once they have been used.
func (h *Handler) clearOAuth(c *gin.Context) {
	h.setShortCookie(c, stateCookieName, "", -1)
	h.setShortCookie(c, pkceCookieName, "", -1)
}

func (h *Handler) setShortCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return cookie.Value == stateQuery
}
