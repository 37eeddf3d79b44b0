package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/application/analysis"
	"github.com/oksasatya/competitor-radar/internal/application/auth"
	"github.com/oksasatya/competitor-radar/internal/application/radar"
	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/response"
)

// Every token failure gets the same message so the response does not tell an
// attacker which links exist.
const invalidLinkMessage = "invalid or expired link"

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// writeError maps domain and pipeline errors onto HTTP statuses.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		verr    *analysis.ValidationError
		insuff  *analysis.InsufficientDataError
		ptime   *analysis.PipelineTimeoutError
		fetch   *entity.FetchError
		parse   *entity.ParseError
		limited *auth.RateLimitedError
	)
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{
			Code:   "invalid_input",
			Detail: map[string]string{verr.Field: verr.Reason},
		})
	case errors.As(err, &insuff):
		response.Error[any](c, http.StatusUnprocessableEntity, "no competitor could be analysed", response.ErrorBody{
			Code:   "insufficient_data",
			Detail: gin.H{"failures": insuff.Failures},
		})
	case errors.As(err, &ptime):
		response.Error[any](c, http.StatusGatewayTimeout, "analysis timed out", response.ErrorBody{
			Code:   "pipeline_timeout",
			Detail: gin.H{"stage": ptime.Stage},
		})
	case errors.As(err, &fetch):
		response.Error[any](c, http.StatusUnprocessableEntity, "your site could not be fetched", response.ErrorBody{
			Code:   "subject_unreachable",
			Detail: gin.H{"url": fetch.URL, "status_code": fetch.StatusCode},
		})
	case errors.As(err, &parse):
		response.Error[any](c, http.StatusUnprocessableEntity, "your site could not be read", response.ErrorBody{
			Code:   "subject_unreadable",
			Detail: gin.H{"url": parse.URL, "reason": parse.Reason},
		})
	case errors.As(err, &limited):
		secs := int(limited.RetryAfter.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		response.Error[any](c, http.StatusTooManyRequests, "too many requests", response.ErrorBody{
			Code:   "rate_limited",
			Detail: gin.H{"retry_after_seconds": secs},
		})
	case errors.Is(err, entity.ErrInvalidEmail):
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{
			Code:   "invalid_input",
			Detail: map[string]string{"email": "must be a valid email"},
		})
	case errors.Is(err, entity.ErrTokenNotFound):
		response.Error[any](c, http.StatusUnauthorized, invalidLinkMessage, response.ErrorBody{Code: "token_not_found"})
	case errors.Is(err, entity.ErrTokenExpired):
		response.Error[any](c, http.StatusUnauthorized, invalidLinkMessage, response.ErrorBody{Code: "token_expired"})
	case errors.Is(err, entity.ErrTokenConsumed):
		response.Error[any](c, http.StatusUnauthorized, invalidLinkMessage, response.ErrorBody{Code: "token_consumed"})
	case errors.Is(err, entity.ErrInvalidSession):
		response.Error[any](c, http.StatusUnauthorized, "invalid or expired session", response.ErrorBody{Code: "invalid_session"})
	case errors.Is(err, entity.ErrReportNotFound):
		response.Error[any](c, http.StatusNotFound, "report not found", response.ErrorBody{Code: "not_found"})
	case errors.Is(err, radar.ErrSearchUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, "search is not available", response.ErrorBody{Code: "search_unavailable"})
	case errors.Is(err, context.Canceled):
		c.Status(499)
		c.Abort()
	default:
		if logger != nil {
			helpers.LogError(logger, "request failed", err, logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			})
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
