package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccessLog writes one structured line per request.
func AccessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       normalizePath(c),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         ipFromCtx(c),
		}
		if uid := c.GetString("userID"); uid != "" {
			fields["user_id"] = uid
		}
		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			entry.WithField("error", c.Errors.String()).Error("request failed")
			return
		}
		entry.Info("request")
	}
}
