package handlers

import (
	"errors"
	"net/http"

	"iplocator/internal/models"
	"iplocator/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const adminContextKey = "admin"

// AuthRequired resolves the session cookie to an admin or aborts with 401.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := sessions.Default(c).Get(sessionTokenKey).(string)

		admin, err := h.authService.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			h.logger.Error("Session validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(adminContextKey, admin)
		c.Next()
	}
}

func currentAdmin(c *gin.Context) *models.Admin {
	admin, _ := c.Get(adminContextKey)
	a, _ := admin.(*models.Admin)
	return a
}
