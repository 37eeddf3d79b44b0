package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/ratelimit"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubSessions map[string]entity.Identity

func (s stubSessions) Validate(_ context.Context, token string) (*entity.Identity, error) {
	id, ok := s[token]
	if !ok {
		return nil, entity.ErrInvalidSession
	}
	return &id, nil
}

func protected(v SessionValidator) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireSession(v), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.UserID+" "+c.GetString("userEmail"))
	})
	return r
}

func TestRequireSession(t *testing.T) {
	r := protected(stubSessions{"ss_good": {UserID: "u1", Email: "a@b.co"}})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookieName, Value: "ss_good"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1 a@b.co", w.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer ss_good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing_session")
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer ss_revoked")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_session")
	})
}

func TestRateLimitDeniesAfterLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := ratelimit.NewMemoryLimiter(2, time.Minute, func() time.Time { return now })
	r := gin.New()
	r.Use(RateLimit(l, KeyByIP(), nil, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
		last = w
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitBypass(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(1, time.Minute, nil)
	r := gin.New()
	r.Use(RateLimit(l, KeyByIP(), func(*gin.Context) bool { return true }, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	in := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, in)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, in, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRealIPPrefersCloudflare(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(true))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7", w.Body.String())
}

func TestRealIPIgnoresHeadersWhenUntrusted(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.10", w.Body.String())
}

func TestRealIPSkipsMalformedForwardedFor(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(true))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-For", "garbage, 198.51.100.4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.4", w.Body.String())
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	cases := map[string]bool{
		"127.0.0.1":          true,
		"10.1.2.3":           true,
		"::ffff:192.168.1.5": true,
		"::1":                true,
		"203.0.113.7":        false,
		"not-an-ip":          false,
	}
	for ip, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("real_ip", ip)
		assert.Equal(t, want, allow(c), ip)
	}
}
