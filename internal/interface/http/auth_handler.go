package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/application/auth"
	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/response"
	"github.com/oksasatya/competitor-radar/pkg/validation"
)

type MagicLinks interface {
	Request(ctx context.Context, email string, meta auth.RequestMeta) error
	Verify(ctx context.Context, token string) (*entity.Identity, error)
}

type Sessions interface {
	Create(ctx context.Context, userID string) (string, time.Time, error)
	Validate(ctx context.Context, token string) (*entity.Identity, error)
	Destroy(ctx context.Context, token string) error
}

type AuthHandler struct {
	Links    MagicLinks
	Sessions Sessions
	Cookies  *helpers.Manager
	Logger   *logrus.Logger
}

func NewAuthHandler(links MagicLinks, sessions Sessions, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Links: links, Sessions: sessions, Cookies: cookies, Logger: logger}
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required,mailaddr"`
}

// Token shape is checked by Verify so every malformed token reads as unknown.
type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type sessionResponse struct {
	entity.Identity
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestMagicLink POST /api/auth/magic-link
// Always 202 for a well-formed address, whether or not an account exists.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: validation.ToDetails(err)})
		return
	}
	meta := auth.RequestMeta{IP: clientIP(c), UserAgent: c.GetHeader("User-Agent")}
	if err := h.Links.Request(c.Request.Context(), req.Email, meta); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, "if the address is valid, a sign-in link is on its way", nil)
}

// Verify POST /api/auth/verify
// Redeems a magic link and opens a session.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, invalidLinkMessage, response.ErrorBody{Code: "invalid_input", Detail: validation.ToDetails(err)})
		return
	}
	id, err := h.Links.Verify(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	token, exp, err := h.Sessions.Create(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.SetSession(c, token, exp)
	}
	helpers.LogInfo(h.Logger, "session opened", logrus.Fields{"user_id": id.UserID, "new_user": id.IsNew})
	response.Success(c, http.StatusOK, sessionResponse{Identity: *id, Token: token, ExpiresAt: exp}, "signed in", nil)
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		if err := h.Sessions.Destroy(c.Request.Context(), token); err != nil {
			writeError(c, h.Logger, err)
			return
		}
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.Success[any](c, http.StatusOK, nil, "signed out", nil)
}

// Me GET /api/auth/me (session required)
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, entity.ErrInvalidSession)
		return
	}
	response.Success(c, http.StatusOK, id, "ok", nil)
}
