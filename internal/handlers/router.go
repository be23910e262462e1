package handlers

import (
	"net/http"

	"iplocator/internal/middleware"
	"iplocator/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "session"
	sessionTokenKey   = "token"
)

func (h *Handler) sessionOptions(maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}

// SetupRouter builds the engine. A nil rateLimiter disables rate limiting.
func (h *Handler) SetupRouter(rateLimiter middleware.Allower) *gin.Engine {
	r := gin.New()
	if err := middleware.TrustProxies(r, h.cfg.TrustedProxies, h.cfg.TrustedPlatform); err != nil {
		h.logger.Error("Invalid TRUSTED_PROXIES, forwarding headers ignored", "error", err)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(h.logger))

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(h.sessionOptions(int(services.SessionTTL.Seconds())))
	r.Use(sessions.Sessions(SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")

	// Public Routes
	public := api.Group("")
	if rateLimiter != nil {
		public.Use(middleware.RateLimit(rateLimiter))
	}
	public.GET("/location", h.GetLocation)
	public.POST("/location", h.ReportGPS)
	public.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	// Protected Routes
	authorized := api.Group("")
	authorized.Use(h.AuthRequired())
	{
		authorized.GET("/visits", h.ListVisits)
	}

	return r
}
