// Package radar runs scans on behalf of a signed-in user, persists the
// reports and serves them back scoped to their owner.
package radar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/crm"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
	mailtpl "github.com/oksasatya/competitor-radar/pkg/mailer/templates"
)

var ErrSearchUnavailable = errors.New("report search is not configured")

const sideEffectTimeout = 15 * time.Second

// Side-effect kinds reported to the Recorder.
const (
	EffectEmail   = "email"
	EffectIndex   = "search_index"
	EffectArchive = "archive"
	EffectCRM     = "crm"
)

type Runner interface {
	Run(ctx context.Context, subjectURL string, competitorURLs []string) (*entity.RadarReport, error)
}

type Indexer interface {
	Index(ctx context.Context, r *entity.RadarReport) error
	Search(ctx context.Context, ownerID, q string, size int) ([]entity.ReportSummary, error)
}

type Archiver interface {
	Archive(ctx context.Context, r *entity.RadarReport) (string, error)
}

type Recorder interface {
	SideEffect(kind string, err error)
}

// Service fields other than Runner and Reports are optional.
type Service struct {
	Runner   Runner
	Reports  repo.ReportRepository
	Mailer   mailer.Sender
	CRM      crm.Sink
	Index    Indexer
	Archive  Archiver
	Config   *config.Config
	Logger   *logrus.Logger
	Recorder Recorder

	wg sync.WaitGroup
}

// Scan runs the pipeline and saves the report. A failed run saves nothing.
// Notifications, indexing and archiving happen after the call returns.
func (s *Service) Scan(ctx context.Context, owner entity.Identity, yourURL string, competitorURLs []string) (*entity.RadarReport, error) {
	rep, err := s.Runner.Run(ctx, yourURL, competitorURLs)
	if err != nil {
		return nil, err
	}
	rep.UserID = owner.UserID
	if _, err := s.Reports.Save(ctx, rep); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.logger().WithFields(logrus.Fields{
		"report_id": rep.ID,
		"user_id":   owner.UserID,
		"partial":   rep.Partial,
	}).Info("report saved")

	s.afterSave(ctx, owner, rep)
	return rep, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*entity.RadarReport, error) {
	return s.Reports.GetByID(ctx, id, ownerID)
}

func (s *Service) List(ctx context.Context, ownerID string, f repo.ListFilter) ([]entity.ReportSummary, int, error) {
	return s.Reports.List(ctx, ownerID, f)
}

func (s *Service) Search(ctx context.Context, ownerID, q string, size int) ([]entity.ReportSummary, error) {
	if s.Index == nil {
		return nil, ErrSearchUnavailable
	}
	if strings.TrimSpace(q) == "" {
		return []entity.ReportSummary{}, nil
	}
	return s.Index.Search(ctx, ownerID, q, size)
}

// Wait blocks until background side effects finish.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) afterSave(ctx context.Context, owner entity.Identity, rep *entity.RadarReport) {
	bg := context.WithoutCancel(ctx)

	if s.Index != nil {
		s.async(bg, EffectIndex, rep.ID, func(ctx context.Context) error { return s.Index.Index(ctx, rep) })
	}
	if s.Archive != nil {
		s.async(bg, EffectArchive, rep.ID, func(ctx context.Context) error {
			uri, err := s.Archive.Archive(ctx, rep)
			if err == nil {
				s.logger().WithFields(logrus.Fields{"report_id": rep.ID, "uri": uri}).Debug("report archived")
			}
			return err
		})
	}
	if s.Mailer != nil && owner.Email != "" {
		s.async(bg, EffectEmail, rep.ID, func(ctx context.Context) error {
			return s.Mailer.Send(ctx, s.reportReadyJob(owner.Email, rep))
		})
	}
	if s.CRM != nil && owner.Email != "" {
		s.async(bg, EffectCRM, rep.ID, func(ctx context.Context) error {
			return s.CRM.Upsert(ctx, crm.Contact{Email: owner.Email, Source: "radar", Event: "report_created", SeenAt: rep.CreatedAt})
		})
	}
}

func (s *Service) async(ctx context.Context, kind, reportID string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		cctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		err := fn(cctx)
		if s.Recorder != nil {
			s.Recorder.SideEffect(kind, err)
		}
		if err != nil {
			helpers.LogWarn(s.logger(), "report side effect failed", err, logrus.Fields{"kind": kind, "report_id": reportID})
		}
	}()
}

func (s *Service) reportReadyJob(email string, rep *entity.RadarReport) mailer.EmailJob {
	cfg := s.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	facts := mailtpl.ReportFacts{
		ReportURL:           strings.TrimRight(cfg.ReportURL, "/") + "/" + rep.ID,
		YourURL:             rep.YourURL,
		OverallPosition:     string(rep.StrategicInsights.OverallCompetitivePosition),
		CompetitorCount:     rep.CompetitorCount,
		HighThreatCount:     rep.HighThreatCount,
		CriticalActionCount: rep.CriticalActionCount,
		Partial:             rep.Partial,
	}
	return mailer.EmailJob{
		To:       email,
		Template: mailtpl.ReportReady,
		Data:     mailtpl.NewReportReadyData(cfg, email, facts, mailtpl.WithTime(rep.CreatedAt)),
	}
}

func (s *Service) logger() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
