package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
)

// ReportRepository stores deep copies so a saved report cannot change.
type ReportRepository struct {
	mu      sync.RWMutex
	reports map[string][]byte
	order   []string
	now     func() time.Time
}

func NewReportRepository(now func() time.Time) *ReportRepository {
	if now == nil {
		now = time.Now
	}
	return &ReportRepository{reports: map[string][]byte{}, now: now}
}

func (r *ReportRepository) Save(_ context.Context, rep *entity.RadarReport) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.ID = uuid.NewString()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = r.now().UTC()
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return "", err
	}
	r.reports[rep.ID] = b
	r.order = append(r.order, rep.ID)
	return rep.ID, nil
}

func (r *ReportRepository) GetByID(_ context.Context, id, ownerID string) (*entity.RadarReport, error) {
	r.mu.RLock()
	b, ok := r.reports[id]
	r.mu.RUnlock()
	if !ok {
		return nil, entity.ErrReportNotFound
	}
	rep, err := decode(b)
	if err != nil {
		return nil, err
	}
	if rep.UserID != ownerID {
		return nil, entity.ErrReportNotFound
	}
	return rep, nil
}

func (r *ReportRepository) List(_ context.Context, ownerID string, f repo.ListFilter) ([]entity.ReportSummary, int, error) {
	f = f.Normalize()

	r.mu.RLock()
	var matched []entity.ReportSummary
	for i := len(r.order) - 1; i >= 0; i-- {
		rep, err := decode(r.reports[r.order[i]])
		if err != nil {
			r.mu.RUnlock()
			return nil, 0, err
		}
		if rep.UserID != ownerID {
			continue
		}
		if !f.From.IsZero() && rep.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rep.CreatedAt.After(f.To) {
			continue
		}
		matched = append(matched, rep.Summary())
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := f.Offset()
	if start >= total {
		return []entity.ReportSummary{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func decode(b []byte) (*entity.RadarReport, error) {
	var rep entity.RadarReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
