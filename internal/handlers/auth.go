package handlers

import (
	"errors"
	"net/http"

	"iplocator/internal/middleware"
	"iplocator/internal/models"
	"iplocator/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	ip := middleware.GetClientIP(c)
	token, admin, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.auditService.LogAction(nil, models.ActionLoginFailed, req.Username, nil, ip)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.logger.Error("Login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.auditService.LogAction(&admin.ID, models.ActionLogin, admin.Username, nil, ip)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout deletes the server session and expires the cookie. It succeeds
// even without a session.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	token, _ := session.Get(sessionTokenKey).(string)

	if token != "" {
		var adminID *uint
		if admin, err := h.authService.Validate(ctx, token); err == nil {
			adminID = &admin.ID
		}
		if err := h.authService.Revoke(ctx, token); err != nil {
			h.logger.Error("Failed to delete session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		h.auditService.LogAction(adminID, models.ActionLogout, "", nil, middleware.GetClientIP(c))
	}

	session.Clear()
	session.Options(h.sessionOptions(-1))
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
