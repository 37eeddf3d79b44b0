// Package analysis runs the RADAR pipeline: snapshot the subject, snapshot
// and assess each competitor concurrently, then roll everything up into one
// report.
package analysis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

type Snapshotter interface {
	Snapshot(ctx context.Context, url string) (*entity.Snapshot, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, subject, competitor *entity.Snapshot) (*entity.CompetitorInsight, error)
	SynthesizeStrategic(ctx context.Context, subject *entity.Snapshot, competitors []entity.CompetitorAnalysis) (*entity.StrategicInsights, error)
}

// Recorder receives pipeline telemetry. A nil Recorder is allowed.
type Recorder interface {
	RunFinished(outcome string, elapsed time.Duration)
	CompetitorFailed(stage, reason string)
}

// Run outcomes reported to the Recorder.
const (
	OutcomeSuccess       = "success"
	OutcomePartial       = "partial"
	OutcomeInvalid       = "invalid"
	OutcomeSubjectFailed = "subject_failed"
	OutcomeInsufficient  = "insufficient_data"
	OutcomeTimeout       = "timeout"
)

const ReasonTimeout = "timeout"

type Options struct {
	Concurrency      int
	FetchTimeout     time.Duration
	SynthesisTimeout time.Duration
	// StageTimeout bounds each fan-out stage; stragglers become isolated failures.
	StageTimeout time.Duration
	// PipelineTimeout bounds the whole run on top of the caller's context. Zero disables it.
	PipelineTimeout time.Duration
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.SynthesisTimeout <= 0 {
		o.SynthesisTimeout = 60 * time.Second
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 90 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Orchestrator struct {
	snap     Snapshotter
	synth    Synthesizer
	recorder Recorder
	logger   *logrus.Logger
	opts     Options
}

func NewOrchestrator(snap Snapshotter, synth Synthesizer, recorder Recorder, logger *logrus.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{snap: snap, synth: synth, recorder: recorder, logger: logger, opts: opts.withDefaults()}
}

// Run produces a report or fails with *ValidationError, the subject's
// *entity.FetchError / *entity.ParseError, *InsufficientDataError or
// *PipelineTimeoutError. A failed run returns no partial report.
func (o *Orchestrator) Run(ctx context.Context, subjectURL string, competitorURLs []string) (*entity.RadarReport, error) {
	start := o.opts.Now()

	subjectURL, competitorURLs, err := ValidateInput(subjectURL, competitorURLs)
	if err != nil {
		o.finish(OutcomeInvalid, start)
		return nil, err
	}

	if o.opts.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.PipelineTimeout)
		defer cancel()
	}

	log := o.logger.WithFields(logrus.Fields{"subject": subjectURL, "competitors": len(competitorURLs)})

	subject, err := o.snapshot(ctx, subjectURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, o.timedOut(ctx, StageSubject, start)
		}
		o.finish(OutcomeSubjectFailed, start)
		log.WithError(err).Info("subject snapshot failed")
		return nil, err
	}

	fetched := fanOut(ctx, o.opts.StageTimeout, o.opts.Concurrency, len(competitorURLs),
		func(ctx context.Context, i int) (*entity.Snapshot, error) {
			return o.snapshot(ctx, competitorURLs[i])
		})
	if ctx.Err() != nil {
		return nil, o.timedOut(ctx, StageFetch, start)
	}

	var failures []entity.CompetitorFailure
	survivors := make([]int, 0, len(fetched))
	for i, f := range fetched {
		if f.err != nil {
			failures = append(failures, o.failure(competitorURLs[i], i, StageFetch, f.err))
			continue
		}
		survivors = append(survivors, i)
	}

	assessed := fanOut(ctx, o.opts.StageTimeout, o.opts.Concurrency, len(survivors),
		func(ctx context.Context, j int) (*entity.CompetitorInsight, error) {
			cctx, cancel := context.WithTimeout(ctx, o.opts.SynthesisTimeout)
			defer cancel()
			return o.synth.Synthesize(cctx, subject, fetched[survivors[j]].value)
		})
	if ctx.Err() != nil {
		return nil, o.timedOut(ctx, StageSynthesis, start)
	}

	analyses := make([]entity.CompetitorAnalysis, 0, len(survivors))
	for j, a := range assessed {
		i := survivors[j]
		if a.err != nil {
			failures = append(failures, o.failure(competitorURLs[i], i, StageSynthesis, a.err))
			continue
		}
		analyses = append(analyses, entity.CompetitorAnalysis{
			URL:      competitorURLs[i],
			Snapshot: *fetched[i].value,
			Insight:  *a.value,
		})
	}
	sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })

	if len(analyses) == 0 {
		o.finish(OutcomeInsufficient, start)
		log.WithField("failures", len(failures)).Info("no competitor survived")
		return nil, &InsufficientDataError{Failures: failures}
	}

	strategic, err := o.strategize(ctx, subject, analyses)
	if err != nil {
		if ctx.Err() != nil {
			return nil, o.timedOut(ctx, StageStrategy, start)
		}
		log.WithError(err).Warn("strategic synthesis failed, using heuristic roll-up")
		strategic = HeuristicStrategy(analyses)
	}

	report := &entity.RadarReport{
		YourURL:              subjectURL,
		YourSnapshot:         *subject,
		Competitors:          analyses,
		StrategicInsights:    *strategic,
		RequestedCompetitors: len(competitorURLs),
		Failures:             failures,
	}
	report.Summarize()
	report.ExecutionTimeMs = o.opts.Now().Sub(start).Milliseconds()

	result := OutcomeSuccess
	if report.Partial {
		result = OutcomePartial
	}
	o.finish(result, start)
	log.WithFields(logrus.Fields{
		"analysed":          report.CompetitorCount,
		"failed":            len(failures),
		"execution_time_ms": report.ExecutionTimeMs,
	}).Info("radar run complete")
	return report, nil
}

func (o *Orchestrator) snapshot(ctx context.Context, url string) (*entity.Snapshot, error) {
	cctx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()
	return o.snap.Snapshot(cctx, url)
}

func (o *Orchestrator) strategize(ctx context.Context, subject *entity.Snapshot, analyses []entity.CompetitorAnalysis) (*entity.StrategicInsights, error) {
	cctx, cancel := context.WithTimeout(ctx, o.opts.SynthesisTimeout)
	defer cancel()
	return o.synth.SynthesizeStrategic(cctx, subject, analyses)
}

func (o *Orchestrator) failure(url string, index int, stage string, err error) entity.CompetitorFailure {
	reason := failureReason(err)
	if o.recorder != nil {
		o.recorder.CompetitorFailed(stage, reasonClass(err))
	}
	helpers.LogInfo(o.logger, "competitor dropped", logrus.Fields{
		"url": url, "index": index, "stage": stage, "reason": reason,
	})
	return entity.CompetitorFailure{URL: url, Index: index, Stage: stage, Reason: reason}
}

func (o *Orchestrator) timedOut(ctx context.Context, stage string, start time.Time) error {
	o.finish(OutcomeTimeout, start)
	elapsed := o.opts.Now().Sub(start)
	o.logger.WithFields(logrus.Fields{"stage": stage, "elapsed": elapsed.String()}).Warn("radar run deadline exceeded")
	return &PipelineTimeoutError{Stage: stage, Elapsed: elapsed, Err: ctx.Err()}
}

func (o *Orchestrator) finish(outcome string, start time.Time) {
	if o.recorder != nil {
		o.recorder.RunFinished(outcome, o.opts.Now().Sub(start))
	}
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return err.Error()
}

// reasonClass keeps metric label cardinality bounded.
func reasonClass(err error) string {
	var (
		fe *entity.FetchError
		pe *entity.ParseError
		se *entity.SynthesisError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &fe):
		return "fetch"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &se):
		return "synthesis"
	}
	return "other"
}
