// Package cleanup purges magic links and sessions that can no longer be used.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
)

// DefaultMagicLinkGrace keeps expired links around long enough to report
// "expired" instead of "not found" on a late click.
const DefaultMagicLinkGrace = 24 * time.Hour

// DefaultInterval is used by Start when the configured interval is not positive.
const DefaultInterval = 10 * time.Minute

type Job struct {
	links    repo.MagicLinkRepository
	sessions repo.SessionRepository
	logger   *logrus.Logger
	now      func() time.Time

	MagicLinkGrace time.Duration
}

func NewJob(links repo.MagicLinkRepository, sessions repo.SessionRepository, logger *logrus.Logger, now func() time.Time) *Job {
	if now == nil {
		now = time.Now
	}
	return &Job{links: links, sessions: sessions, logger: logger, now: now, MagicLinkGrace: DefaultMagicLinkGrace}
}

// Result counts rows removed by one Run.
type Result struct {
	MagicLinks int64
	Sessions   int64
}

// Run is idempotent: with nothing to delete it returns a zero Result.
func (j *Job) Run(ctx context.Context) (Result, error) {
	start := j.now()
	var res Result

	n, err := j.links.PurgeExpired(ctx, start.Add(-j.MagicLinkGrace))
	if err != nil {
		return res, fmt.Errorf("purge magic links: %w", err)
	}
	res.MagicLinks = n

	n, err = j.sessions.PurgeExpired(ctx, start)
	if err != nil {
		return res, fmt.Errorf("purge sessions: %w", err)
	}
	res.Sessions = n

	j.logger.WithFields(logrus.Fields{
		"magic_links": res.MagicLinks,
		"sessions":    res.Sessions,
		"duration_ms": j.now().Sub(start).Milliseconds(),
	}).Info("auth cleanup finished")
	return res, nil
}

// Start runs the job every interval until ctx is done.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		j.logger.WithField("interval", interval.String()).Warn("auth cleanup interval not positive, using default")
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.WithError(err).Warn("auth cleanup failed")
			}
		}
	}
}
