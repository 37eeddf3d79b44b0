package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/infrastructure/ratelimit"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUserID falls back to the client IP for anonymous requests.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString("userID")
		if uid == "" {
			return "user:anon:ip:" + ipFromCtx(c)
		}
		return "user:" + uid
	}
}

type AllowFunc func(*gin.Context) bool // return true for bypass limit

// RateLimit with:
// - a shared sliding-window limiter
// - standard headers (limit/remaining/reset)
// - optional allowlist bypass & method skip
//
// Limiter errors let the request through; endpoints that must fail closed
// enforce their own limit in the service layer.
func RateLimit(l ratelimit.Limiter, keyFn KeyFunc, allow AllowFunc, logger *logrus.Logger) gin.HandlerFunc {
	if l == nil || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), keyFn(c))
		if err != nil {
			if logger != nil {
				helpers.LogWarn(logger, "rate limiter unavailable", err, logrus.Fields{"path": normalizePath(c)})
			}
			c.Next()
			return
		}

		resetSec := int(math.Ceil(d.ResetIn.Seconds()))
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if !d.Allowed {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", response.ErrorBody{Code: "rate_limited"})
			return
		}
		c.Next()
	}
}
