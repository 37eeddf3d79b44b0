package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP stores the client address under "real_ip". With trustProxy the
// order is CF-Connecting-IP, then the left-most valid X-Forwarded-For
// entry, then c.ClientIP(). Without it only c.ClientIP() is used.
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		if trustProxy {
			ip = forwardedIP(c)
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set("real_ip", ip)
		c.Next()
	}
}

func forwardedIP(c *gin.Context) string {
	if addr, err := netip.ParseAddr(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); err == nil {
		return addr.Unmap().String()
	}
	for _, part := range strings.Split(c.GetHeader("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			return addr.Unmap().String()
		}
	}
	return ""
}
