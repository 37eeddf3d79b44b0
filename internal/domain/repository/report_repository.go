package repository

import (
	"context"
	"time"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// ListFilter selects one owner's reports. From and To are inclusive bounds on
// the creation time; zero values leave that side open. Page is 1-based.
type ListFilter struct {
	Page  int
	Limit int
	From  time.Time
	To    time.Time
}

// Normalize clamps paging to sane values.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

// Offset is the number of rows skipped before the page window.
func (f ListFilter) Offset() int { return (f.Page - 1) * f.Limit }

// ReportRepository persists write-once reports. Every read is scoped to the owner.
type ReportRepository interface {
	Save(ctx context.Context, r *entity.RadarReport) (string, error)
	GetByID(ctx context.Context, id, ownerID string) (*entity.RadarReport, error)
	List(ctx context.Context, ownerID string, f ListFilter) ([]entity.ReportSummary, int, error)
}
