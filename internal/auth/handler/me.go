package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/docstore"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/middleware"
)

// Me returns the profile document of the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	snap, ok := h.loadProfile(c, userID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	if snap == nil || !snap.Exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid":     userID,
		"profile": snap.Fields,
	})
}

// Home renders the landing page for a signed-in browser.
func (h *Handler) Home(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	data := gin.H{}
	if snap, ok := h.loadProfile(c, userID); ok && snap != nil && snap.Exists {
		data["DisplayName"] = snap.Fields["displayName"]
		data["Email"] = snap.Fields["email"]
	}

	c.HTML(http.StatusOK, "home.html", data)
}

// loadProfile reads users/{uid}. ok is false when the lookup failed.
func (h *Handler) loadProfile(c *gin.Context, userID string) (*docstore.Snapshot, bool) {
	ref, err := h.profiles.Get(userID)
	if err != nil {
		logger.Error("profile handle failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, false
	}
	if ref == nil {
		return nil, true
	}

	snap, err := ref.Get(c.Request.Context())
	if err != nil {
		logger.Error("profile read failed", map[string]any{
			"path":  ref.Path,
			"error": err.Error(),
		})
		return nil, false
	}
	return snap, true
}
