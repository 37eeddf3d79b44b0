package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
	"github.com/oksasatya/competitor-radar/pkg/response"
	"github.com/oksasatya/competitor-radar/pkg/validation"
)

type Reports interface {
	Scan(ctx context.Context, owner entity.Identity, yourURL string, competitorURLs []string) (*entity.RadarReport, error)
	Get(ctx context.Context, ownerID, id string) (*entity.RadarReport, error)
	List(ctx context.Context, ownerID string, f repo.ListFilter) ([]entity.ReportSummary, int, error)
	Search(ctx context.Context, ownerID, q string, size int) ([]entity.ReportSummary, error)
}

var errBadDate = errors.New("must be RFC 3339 or YYYY-MM-DD")

type RadarHandler struct {
	Reports Reports
	Logger  *logrus.Logger
}

func NewRadarHandler(reports Reports, logger *logrus.Logger) *RadarHandler {
	return &RadarHandler{Reports: reports, Logger: logger}
}

// URL shape is checked by the pipeline, which names the offending index.
type scanRequest struct {
	YourURL        string   `json:"your_url" binding:"required,weburl"`
	CompetitorURLs []string `json:"competitor_urls" binding:"required,min=1,dive,weburl"`
}

type listQuery struct {
	Page  int    `form:"page" binding:"omitempty,gte=1"`
	Limit int    `form:"limit" binding:"omitempty,gte=1,lte=50"`
	From  string `form:"from"`
	To    string `form:"to"`
}

// Scan POST /api/radar/scans
func (h *RadarHandler) Scan(c *gin.Context) {
	owner, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, entity.ErrInvalidSession)
		return
	}
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: validation.ToDetails(err)})
		return
	}
	rep, err := h.Reports.Scan(c.Request.Context(), owner, req.YourURL, req.CompetitorURLs)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := "report created"
	if rep.Partial {
		msg = "report created with missing competitors"
	}
	response.Success(c, http.StatusCreated, rep, msg, nil)
}

// List GET /api/radar/reports
func (h *RadarHandler) List(c *gin.Context) {
	owner, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, entity.ErrInvalidSession)
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: validation.ToDetails(err)})
		return
	}
	from, err := parseBound(q.From, false)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: map[string]string{"from": err.Error()}})
		return
	}
	to, err := parseBound(q.To, true)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: map[string]string{"to": err.Error()}})
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: map[string]string{"to": "must not be before from"}})
		return
	}

	f := repo.ListFilter{Page: q.Page, Limit: q.Limit, From: from, To: to}.Normalize()
	items, total, err := h.Reports.List(c.Request.Context(), owner.UserID, f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if items == nil {
		items = []entity.ReportSummary{}
	}
	response.Success(c, http.StatusOK, items, "ok", response.NewPageMeta(f.Page, f.Limit, total))
}

// Get GET /api/radar/reports/:id
// Another user's report is indistinguishable from a missing one.
func (h *RadarHandler) Get(c *gin.Context) {
	owner, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, entity.ErrInvalidSession)
		return
	}
	rep, err := h.Reports.Get(c.Request.Context(), owner.UserID, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, rep, "ok", nil)
}

// Search GET /api/radar/reports/search?q=&limit=
func (h *RadarHandler) Search(c *gin.Context) {
	owner, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, entity.ErrInvalidSession)
		return
	}
	size := repo.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > repo.MaxListLimit {
			response.Error[any](c, http.StatusBadRequest, "validation error", response.ErrorBody{Code: "invalid_input", Detail: map[string]string{"limit": "must be between 1 and 50"}})
			return
		}
		size = n
	}
	items, err := h.Reports.Search(c.Request.Context(), owner.UserID, c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if items == nil {
		items = []entity.ReportSummary{}
	}
	response.Success(c, http.StatusOK, items, "ok", nil)
}

// parseBound accepts RFC 3339 or a bare date. A bare upper bound covers the
// whole day.
func parseBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errBadDate
	}
	if upper {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return d, nil
}
