package middleware

import (
	"time"

	"iplocator/internal/logging"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request after the handler chain finishes.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency", time.Since(start),
			"client_ip", GetClientIP(c),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", args...)
		case status >= 400:
			logger.Warn("HTTP request", args...)
		default:
			logger.Info("HTTP request", args...)
		}
	}
}
