package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/competitor-radar/internal/container"
	handlers "github.com/oksasatya/competitor-radar/internal/interface/http"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
)

// AuthModule routes:
// Public: POST /api/auth/magic-link, POST /api/auth/verify, POST /api/auth/logout
// Protected: GET /api/auth/me
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Sessions middleware.SessionValidator
}

func NewAuthModule(h *handlers.AuthHandler, sessions middleware.SessionValidator) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	log := container.GetLogger()
	// Per-address limits live in the magic-link service; these cap a single IP.
	requestLimiter := middleware.RateLimit(limiter("auth:request", 20, time.Hour), middleware.KeyByIP(), nil, log)
	verifyLimiter := middleware.RateLimit(limiter("auth:verify", 30, time.Minute), middleware.KeyByIPAndPath(), nil, log)

	rg.POST("/auth/magic-link", requestLimiter, m.Handler.RequestMagicLink)
	rg.POST("/auth/verify", verifyLimiter, m.Handler.Verify)
	rg.POST("/auth/logout", m.Handler.Logout)

	auth := rg.Group("/")
	auth.Use(middleware.RequireSession(m.Sessions))
	{
		auth.GET("/auth/me", m.Handler.Me)
	}
}
