package router

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/application/analysis"
	"github.com/oksasatya/competitor-radar/internal/application/auth"
	"github.com/oksasatya/competitor-radar/internal/application/radar"
	"github.com/oksasatya/competitor-radar/internal/container"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/archive"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/crm"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/insight"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/memory"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/metrics"
	pginfra "github.com/oksasatya/competitor-radar/internal/infrastructure/postgres"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/ratelimit"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/search"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/snapshot"
	handlers "github.com/oksasatya/competitor-radar/internal/interface/http"
	"github.com/oksasatya/competitor-radar/internal/router/modules"
	"github.com/oksasatya/competitor-radar/internal/worker/cleanup"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
)

var ErrNoCompleter = errors.New("no reasoning model configured (set GENAI_API_KEY)")

// Deps are the services built for the HTTP modules. cmd/main drives the
// cleanup job and waits on background work during shutdown.
type Deps struct {
	MagicLinks *auth.MagicLinkService
	Sessions   *auth.SessionManager
	Radar      *radar.Service
	Cleanup    *cleanup.Job
	Metrics    *metrics.Collector
}

// Wait blocks until fire-and-forget side effects have finished.
func (d *Deps) Wait() {
	d.MagicLinks.Wait()
	d.Radar.Wait()
}

type stores struct {
	users    repo.UserRepository
	links    repo.MagicLinkRepository
	sessions repo.SessionRepository
	reports  repo.ReportRepository
}

// buildStores uses Postgres when a pool is wired, otherwise process memory.
func buildStores() stores {
	if pool := container.GetPGPool(); pool != nil {
		return stores{
			users:    pginfra.NewUserRepository(pool),
			links:    pginfra.NewMagicLinkRepository(pool),
			sessions: pginfra.NewSessionRepository(pool),
			reports:  pginfra.NewReportRepository(pool),
		}
	}
	container.GetLogger().Warn("no postgres pool, using in-memory stores")
	users := memory.NewUserRepository(nil)
	return stores{
		users:    users,
		links:    memory.NewMagicLinkRepository(),
		sessions: memory.NewSessionRepository(users),
		reports:  memory.NewReportRepository(nil),
	}
}

// buildSender picks the broker first, then direct Mailgun, then a log-only sink.
func buildSender() mailer.Sender {
	cfg := container.GetConfig()
	if !cfg.MailSendEnabled {
		return mailer.LogSender{Logger: container.GetLogger()}
	}
	if pub := container.GetRabbitPub(); pub != nil {
		return mailer.NewQueueSender(pub)
	}
	if mg := container.GetMailgun(); mg != nil {
		return mailer.NewDirectSender(mg)
	}
	return mailer.LogSender{Logger: container.GetLogger()}
}

func buildCRM() crm.Sink {
	if url := strings.TrimSpace(container.GetConfig().CRMWebhookURL); url != "" {
		return crm.NewWebhookSink(url, nil)
	}
	return crm.NopSink{}
}

func buildAuthDeps(st stores, sender mailer.Sender, sink crm.Sink, rec *metrics.Collector) (*auth.MagicLinkService, *auth.SessionManager) {
	cfg := container.GetConfig()
	hasher := helpers.NewTokenHasher(cfg.TokenPepper)

	var lim ratelimit.Limiter
	if rdb := container.GetRedis(); rdb != nil {
		lim = ratelimit.NewRedisLimiter(rdb, "rl:magic-link:", cfg.MagicLinkRateLimit, cfg.MagicLinkRateWindow)
	} else {
		lim = ratelimit.NewMemoryLimiter(cfg.MagicLinkRateLimit, cfg.MagicLinkRateWindow, nil)
	}

	links := auth.NewMagicLinkService(
		st.links, st.users, lim, sender, sink, hasher, cfg, container.GetLogger(), rec,
		auth.MagicLinkOptions{TTL: cfg.MagicLinkTTL, LinkURL: cfg.MagicLinkURL},
	)
	sessions := auth.NewSessionManager(st.sessions, hasher, cfg.SessionTTL, nil)
	return links, sessions
}

func buildRadarDeps(st stores, sender mailer.Sender, sink crm.Sink, rec *metrics.Collector) (*radar.Service, error) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	completer := container.GetCompleter()
	if completer == nil {
		return nil, ErrNoCompleter
	}

	snap := snapshot.New(snapshot.Options{
		UserAgent:    cfg.RadarUserAgent,
		MaxBodyBytes: cfg.RadarMaxBodyBytes,
		Timeout:      cfg.RadarFetchTimeout,
		Logger:       logger,
	})
	orch := analysis.NewOrchestrator(snap, insight.NewSynthesizer(completer, logger), rec, logger, analysis.Options{
		Concurrency:      cfg.RadarConcurrency,
		FetchTimeout:     cfg.RadarFetchTimeout,
		SynthesisTimeout: cfg.RadarSynthesisTimeout,
		StageTimeout:     cfg.RadarStageTimeout,
		PipelineTimeout:  cfg.RadarPipelineTimeout,
	})

	svc := &radar.Service{
		Runner:   orch,
		Reports:  st.reports,
		Mailer:   sender,
		CRM:      sink,
		Config:   cfg,
		Logger:   logger,
		Recorder: rec,
	}
	if es := container.GetES(); es != nil {
		idx := search.NewReportIndex(es, cfg.ESReportsIndex)
		if err := idx.EnsureIndex(context.Background()); err != nil {
			helpers.LogWarn(logger, "report search disabled", err, logrus.Fields{"index": cfg.ESReportsIndex})
		} else {
			svc.Index = idx
		}
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		svc.Archive = archive.NewGCSArchiver(gcs, cfg.GCSBucket)
	}
	return svc, nil
}

// InitModules builds every service from the container singletons and
// registers the feature modules. Call once during startup.
func InitModules(r *Registry) (*Deps, error) {
	cfg := container.GetConfig()
	rec := metrics.NewCollector(container.GetRegistry())
	st := buildStores()
	sender := buildSender()
	sink := buildCRM()

	links, sessions := buildAuthDeps(st, sender, sink, rec)
	radarSvc, err := buildRadarDeps(st, sender, sink, rec)
	if err != nil {
		return nil, err
	}

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(links, sessions, cookies, container.GetLogger()), sessions))
	r.Add(modules.NewRadarModule(handlers.NewRadarHandler(radarSvc, container.GetLogger()), sessions))
	r.Add(modules.NewHealthModule())
	if cfg.MetricsEnabled {
		r.Add(modules.NewMetricsModule(container.GetRegistry()))
	}

	return &Deps{
		MagicLinks: links,
		Sessions:   sessions,
		Radar:      radarSvc,
		Cleanup:    cleanup.NewJob(st.links, st.sessions, container.GetLogger(), nil),
		Metrics:    rec,
	}, nil
}
