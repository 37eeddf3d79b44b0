package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
)

type ReportRepository struct {
	db DB
}

func NewReportRepository(db DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save writes the report row and one row per competitor in a single transaction.
func (r *ReportRepository) Save(ctx context.Context, rep *entity.RadarReport) (string, error) {
	rep.ID = uuid.NewString()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, user_id, your_url, overall_position, requested_competitors,
			competitor_count, high_threat_count, critical_action_count, partial,
			execution_time_ms, report_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rep.ID, rep.UserID, rep.YourURL, string(rep.StrategicInsights.OverallCompetitivePosition),
		rep.RequestedCompetitors, rep.CompetitorCount, rep.HighThreatCount, rep.CriticalActionCount,
		rep.Partial, rep.ExecutionTimeMs, doc, rep.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	for i, c := range rep.Competitors {
		snap, err := json.Marshal(c.Snapshot)
		if err != nil {
			return "", err
		}
		ins, err := json.Marshal(c.Insight)
		if err != nil {
			return "", err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO competitors (report_id, position, url, threat_level, snapshot, insight)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rep.ID, i, c.URL, string(c.Insight.ThreatLevel), snap, ins); err != nil {
			return "", fmt.Errorf("insert competitor %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return rep.ID, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id, ownerID string) (*entity.RadarReport, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrReportNotFound
	}
	var doc []byte
	err := r.db.QueryRow(ctx, `
		SELECT report_json FROM reports WHERE id = $1 AND user_id = $2
	`, id, ownerID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	var rep entity.RadarReport
	if err := json.Unmarshal(doc, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &rep, nil
}

func (r *ReportRepository) List(ctx context.Context, ownerID string, f repo.ListFilter) ([]entity.ReportSummary, int, error) {
	f = f.Normalize()
	from, to := optionalTime(f.From), optionalTime(f.To)

	const where = `
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM reports`+where, ownerID, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, your_url, overall_position, competitor_count, high_threat_count,
			critical_action_count, partial, execution_time_ms, created_at
		FROM reports`+where+`
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`, ownerID, from, to, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]entity.ReportSummary, 0, f.Limit)
	for rows.Next() {
		var s entity.ReportSummary
		var pos string
		if err := rows.Scan(&s.ID, &s.UserID, &s.YourURL, &pos, &s.CompetitorCount, &s.HighThreatCount,
			&s.CriticalActionCount, &s.Partial, &s.ExecutionTimeMs, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		s.OverallPosition = entity.Position(pos)
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
