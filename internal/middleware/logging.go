package middleware

import (
	"time"

	"opensesame/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request through the application logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		switch {
		case c.Writer.Status() >= 500:
			fields["errors"] = c.Errors.String()
			logger.Error("request", fields)
		case c.Writer.Status() >= 400:
			fields["errors"] = c.Errors.String()
			logger.Warn("request", fields)
		default:
			logger.Info("request", fields)
		}
	}
}
