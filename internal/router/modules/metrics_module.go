package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/competitor-radar/internal/container"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/metrics"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
)

type MetricsModule struct {
	Gatherer prometheus.Gatherer
}

func NewMetricsModule(g prometheus.Gatherer) *MetricsModule { return &MetricsModule{Gatherer: g} }

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	// Private networks scrape freely; everyone else is rate-limited per IP
	rl := middleware.RateLimit(limiter("metrics", 120, time.Minute), middleware.KeyByIP(), middleware.AllowPrivateIP(), container.GetLogger())
	rg.GET("/metrics", rl, gin.WrapH(metrics.Handler(m.Gatherer)))
}
