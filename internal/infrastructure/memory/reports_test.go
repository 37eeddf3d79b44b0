package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
)

func sampleReport(owner string, at time.Time) *entity.RadarReport {
	r := &entity.RadarReport{
		UserID:  owner,
		YourURL: "https://acme.com",
		Competitors: []entity.CompetitorAnalysis{
			{URL: "https://b.com", Insight: entity.CompetitorInsight{ThreatLevel: entity.ThreatHigh, Summary: "b"}},
			{URL: "https://c.com", Insight: entity.CompetitorInsight{ThreatLevel: entity.ThreatLow, Summary: "c"}},
		},
		StrategicInsights: entity.StrategicInsights{
			OverallCompetitivePosition: entity.PositionLagging,
			ActionItems:                []entity.ActionItem{{Priority: entity.PriorityCritical, Description: "x"}},
		},
		RequestedCompetitors: 3,
		CreatedAt:            at,
	}
	r.Summarize()
	return r
}

func TestReportRepository_RoundTripKeepsSummary(t *testing.T) {
	ctx := context.Background()
	r := NewReportRepository(nil)

	in := sampleReport("u1", time.Time{})
	id, err := r.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, id, in.ID)
	assert.False(t, in.CreatedAt.IsZero())

	in.Competitors[0].URL = "mutated"

	out, err := r.GetByID(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://b.com", out.Competitors[0].URL)
	assert.True(t, out.SummaryConsistent())
	assert.Equal(t, 2, out.CompetitorCount)
	assert.Equal(t, 1, out.HighThreatCount)
	assert.Equal(t, 1, out.CriticalActionCount)
	assert.True(t, out.Partial)
}

func TestReportRepository_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	r := NewReportRepository(nil)
	id, err := r.Save(ctx, sampleReport("u1", time.Time{}))
	require.NoError(t, err)

	_, err = r.GetByID(ctx, id, "u2")
	assert.ErrorIs(t, err, entity.ErrReportNotFound)
	_, err = r.GetByID(ctx, "missing", "u1")
	assert.ErrorIs(t, err, entity.ErrReportNotFound)

	rows, total, err := r.List(ctx, "u2", repo.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
}

func TestReportRepository_ListPagingAndRange(t *testing.T) {
	ctx := context.Background()
	r := NewReportRepository(nil)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := r.Save(ctx, sampleReport("u1", base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, err := r.Save(ctx, sampleReport("u2", base))
	require.NoError(t, err)

	page1, total, err := r.List(ctx, "u1", repo.ListFilter{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, page1, 5)
	assert.True(t, page1[0].CreatedAt.Equal(base.Add(11*time.Hour)))

	page3, total, err := r.List(ctx, "u1", repo.ListFilter{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page3, 2)

	beyond, total, err := r.List(ctx, "u1", repo.ListFilter{Page: 9, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Empty(t, beyond)

	ranged, total, err := r.List(ctx, "u1", repo.ListFilter{From: base.Add(2 * time.Hour), To: base.Add(4 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, ranged, 3)
}
