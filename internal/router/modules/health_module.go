package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/container"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthModule struct {
	Checks  map[string]Check
	Timeout time.Duration
}

// NewHealthModule probes whichever stores the container holds.
func NewHealthModule() *HealthModule {
	checks := map[string]Check{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return &HealthModule{Checks: checks, Timeout: 2 * time.Second}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	rg.GET("/readyz", m.ready)
}

func (m *HealthModule) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.Timeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(m.Checks))
	for name, check := range m.Checks {
		if err := check(ctx); err != nil {
			helpers.LogWarn(container.GetLogger(), "readiness check failed", err, logrus.Fields{"dependency": name})
			results[name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}
