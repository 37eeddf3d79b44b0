package radar

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/memory"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
	mailtpl "github.com/oksasatya/competitor-radar/pkg/mailer/templates"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRunner struct {
	report *entity.RadarReport
	err    error
}

func (r stubRunner) Run(context.Context, string, []string) (*entity.RadarReport, error) {
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.report
	return &cp, nil
}

type recordingIndex struct {
	mu      sync.Mutex
	indexed []string
	err     error
}

func (x *recordingIndex) Index(_ context.Context, r *entity.RadarReport) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, r.ID)
	return x.err
}

func (x *recordingIndex) Search(_ context.Context, ownerID, q string, _ int) ([]entity.ReportSummary, error) {
	return []entity.ReportSummary{{ID: ownerID + ":" + q}}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (s *recordingSender) Send(_ context.Context, job mailer.EmailJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

type effects struct {
	mu   sync.Mutex
	seen map[string]int
}

func (e *effects) SideEffect(kind string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen == nil {
		e.seen = map[string]int{}
	}
	key := kind + ":ok"
	if err != nil {
		key = kind + ":error"
	}
	e.seen[key]++
}

func sample() *entity.RadarReport {
	r := &entity.RadarReport{
		YourURL:              "https://acme.com",
		Competitors:          []entity.CompetitorAnalysis{{URL: "https://b.com", Insight: entity.CompetitorInsight{ThreatLevel: entity.ThreatHigh}}},
		StrategicInsights:    entity.StrategicInsights{OverallCompetitivePosition: entity.PositionLagging},
		RequestedCompetitors: 1,
	}
	r.Summarize()
	return r
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var owner = entity.Identity{UserID: "u1", Email: "ana@example.com"}

func TestScan_SavesAndNotifies(t *testing.T) {
	reports := memory.NewReportRepository(nil)
	idx := &recordingIndex{err: errors.New("es down")}
	sender := &recordingSender{}
	eff := &effects{}
	s := &Service{
		Runner:   stubRunner{report: sample()},
		Reports:  reports,
		Mailer:   sender,
		Index:    idx,
		Config:   &config.Config{ReportURL: "https://app.test/reports/"},
		Logger:   quiet(),
		Recorder: eff,
	}

	rep, err := s.Scan(context.Background(), owner, "acme.com", []string{"b.com"})
	require.NoError(t, err)
	require.NotEmpty(t, rep.ID)
	assert.Equal(t, "u1", rep.UserID)
	s.Wait()

	stored, err := s.Get(context.Background(), "u1", rep.ID)
	require.NoError(t, err)
	assert.True(t, stored.SummaryConsistent())

	_, err = s.Get(context.Background(), "u2", rep.ID)
	assert.ErrorIs(t, err, entity.ErrReportNotFound)

	assert.Equal(t, []string{rep.ID}, idx.indexed)
	require.Len(t, sender.jobs, 1)
	assert.Equal(t, mailtpl.ReportReady, sender.jobs[0].Template)
	assert.Equal(t, "https://app.test/reports/"+rep.ID, sender.jobs[0].Data["ReportURL"])
	assert.Equal(t, 1, eff.seen["search_index:error"])
	assert.Equal(t, 1, eff.seen["email:ok"])
}

func TestScan_FailureSavesNothing(t *testing.T) {
	reports := memory.NewReportRepository(nil)
	sender := &recordingSender{}
	runErr := errors.New("no competitor could be analysed")
	s := &Service{Runner: stubRunner{err: runErr}, Reports: reports, Mailer: sender, Logger: quiet()}

	rep, err := s.Scan(context.Background(), owner, "acme.com", []string{"b.com"})
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, runErr)
	s.Wait()

	rows, total, err := s.List(context.Background(), "u1", repo.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	assert.Empty(t, sender.jobs)
}

func TestSearch(t *testing.T) {
	s := &Service{Reports: memory.NewReportRepository(nil)}
	_, err := s.Search(context.Background(), "u1", "acme", 5)
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	s.Index = &recordingIndex{}
	got, err := s.Search(context.Background(), "u1", "acme", 5)
	require.NoError(t, err)
	assert.Equal(t, "u1:acme", got[0].ID)

	got, err = s.Search(context.Background(), "u1", "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
