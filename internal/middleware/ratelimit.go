package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Allower decides whether a client address may make another request.
type Allower interface {
	Allow(ip string) bool
}

// RateLimit rejects requests with 429 once the client's bucket is empty.
func RateLimit(limiter Allower) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(GetClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
