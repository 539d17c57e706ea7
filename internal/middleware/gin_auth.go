package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "userID"

// GinRequireAuth rejects unauthenticated requests with 401.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.Authenticate(c.Request)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// GinRedirectUnauthenticated sends unauthenticated browsers to target.
func GinRedirectUnauthenticated(auth *AuthMiddleware, target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.Authenticate(c.Request)
		if userID == "" {
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
