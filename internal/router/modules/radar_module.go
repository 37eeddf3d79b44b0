package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/competitor-radar/internal/container"
	handlers "github.com/oksasatya/competitor-radar/internal/interface/http"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
)

// RadarModule routes, all behind a session:
// POST /api/radar/scans
// GET  /api/radar/reports, /api/radar/reports/search, /api/radar/reports/:id
type RadarModule struct {
	Handler  *handlers.RadarHandler
	Sessions middleware.SessionValidator
}

func NewRadarModule(h *handlers.RadarHandler, sessions middleware.SessionValidator) *RadarModule {
	return &RadarModule{Handler: h, Sessions: sessions}
}

func (m *RadarModule) Register(rg *gin.RouterGroup) {
	log := container.GetLogger()
	g := rg.Group("/radar")
	g.Use(middleware.RequireSession(m.Sessions))
	g.Use(middleware.RateLimit(limiter("radar:read", 120, time.Minute), middleware.KeyByUserID(), nil, log))

	// A scan fans out to several sites and a model, so it gets its own budget.
	scanLimiter := middleware.RateLimit(limiter("radar:scan", 10, time.Hour), middleware.KeyByUserID(), nil, log)
	g.POST("/scans", scanLimiter, m.Handler.Scan)

	g.GET("/reports", m.Handler.List)
	g.GET("/reports/search", m.Handler.Search)
	g.GET("/reports/:id", m.Handler.Get)
}
