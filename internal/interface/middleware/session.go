package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/response"
)

const identityKey = "identity"

// SessionValidator resolves an opaque session token to its owner.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*entity.Identity, error)
}

// SessionToken reads the session cookie first, then an Authorization: Bearer header.
func SessionToken(c *gin.Context) string {
	if v, err := c.Cookie(helpers.SessionCookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a valid session with 401.
func RequireSession(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "authentication required", response.ErrorBody{Code: "missing_session"})
			return
		}
		id, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, entity.ErrInvalidSession) {
				response.Abort(c, http.StatusUnauthorized, "invalid or expired session", response.ErrorBody{Code: "invalid_session"})
				return
			}
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		c.Set("userID", id.UserID)
		c.Set("userEmail", id.Email)
		c.Set(identityKey, *id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireSession.
func IdentityFrom(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return entity.Identity{}, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}
