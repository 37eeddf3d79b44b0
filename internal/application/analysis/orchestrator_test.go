package analysis

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

type fetchBehavior struct {
	delay time.Duration
	hang  bool
	err   error
}

type fakeSnapshotter struct {
	behavior map[string]fetchBehavior
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, raw string) (*entity.Snapshot, error) {
	b := f.behavior[raw]
	if b.hang {
		<-ctx.Done()
		return nil, &entity.FetchError{URL: raw, Err: ctx.Err()}
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, &entity.FetchError{URL: raw, Err: ctx.Err()}
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	u, _ := url.Parse(raw)
	return &entity.Snapshot{URL: raw, FinalURL: raw, Domain: u.Hostname(), Title: u.Hostname(), WordCount: 100}, nil
}

type fakeSynthesizer struct {
	threat       map[string]entity.ThreatLevel
	failFor      map[string]bool
	strategicErr error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _, competitor *entity.Snapshot) (*entity.CompetitorInsight, error) {
	if f.failFor[competitor.URL] {
		return nil, &entity.SynthesisError{Target: competitor.URL, Reason: "malformed output"}
	}
	lvl, ok := f.threat[competitor.URL]
	if !ok {
		lvl = entity.ThreatMedium
	}
	return &entity.CompetitorInsight{
		ThreatLevel:   lvl,
		Summary:       competitor.Domain + " summary",
		Opportunities: []string{"Opportunity near " + competitor.Domain},
	}, nil
}

func (f *fakeSynthesizer) SynthesizeStrategic(_ context.Context, _ *entity.Snapshot, comps []entity.CompetitorAnalysis) (*entity.StrategicInsights, error) {
	if f.strategicErr != nil {
		return nil, f.strategicErr
	}
	return &entity.StrategicInsights{
		OverallCompetitivePosition: entity.PositionCompetitive,
		Summary:                    "overall",
		ActionItems: []entity.ActionItem{
			{Priority: entity.PriorityCritical, Description: "ship pricing page"},
			{Priority: entity.PriorityLow, Description: "refresh blog"},
		},
		Source: entity.StrategicSourceModel,
	}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	failures []string
}

func (r *fakeRecorder) RunFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) CompetitorFailed(stage, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, stage+":"+reason)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestOrchestrator(snap Snapshotter, synth Synthesizer, rec Recorder, opts Options) *Orchestrator {
	if rec == nil {
		rec = &fakeRecorder{}
	}
	return NewOrchestrator(snap, synth, rec, quietLogger(), opts)
}

func TestRun_PreservesInputOrder(t *testing.T) {
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://a.com": {delay: 60 * time.Millisecond},
		"https://b.com": {delay: 30 * time.Millisecond},
		"https://c.com": {},
	}}
	synth := &fakeSynthesizer{threat: map[string]entity.ThreatLevel{"https://b.com": entity.ThreatHigh}}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(snap, synth, rec, Options{})

	report, err := o.Run(context.Background(), "mine.com", []string{"a.com", "b.com", "c.com"})
	require.NoError(t, err)

	require.Len(t, report.Competitors, 3)
	assert.Equal(t, "https://a.com", report.Competitors[0].URL)
	assert.Equal(t, "https://b.com", report.Competitors[1].URL)
	assert.Equal(t, "https://c.com", report.Competitors[2].URL)
	assert.Equal(t, "https://mine.com", report.YourURL)
	assert.False(t, report.Partial)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 3, report.CompetitorCount)
	assert.Equal(t, 1, report.HighThreatCount)
	assert.Equal(t, 1, report.CriticalActionCount)
	assert.True(t, report.SummaryConsistent())
	assert.Equal(t, []string{OutcomeSuccess}, rec.outcomes)
}

func TestRun_StragglerBecomesIsolatedTimeout(t *testing.T) {
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://b.com": {hang: true},
	}}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, rec, Options{
		FetchTimeout: 5 * time.Second,
		StageTimeout: 80 * time.Millisecond,
	})

	report, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com", "https://b.com", "https://c.com"})
	require.NoError(t, err)

	require.Len(t, report.Competitors, 2)
	assert.Equal(t, "https://a.com", report.Competitors[0].URL)
	assert.Equal(t, "https://c.com", report.Competitors[1].URL)
	assert.True(t, report.Partial)
	assert.Equal(t, 3, report.RequestedCompetitors)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, entity.CompetitorFailure{URL: "https://b.com", Index: 1, Stage: entity.StageFetch, Reason: ReasonTimeout}, report.Failures[0])
	assert.Equal(t, []string{"fetch:timeout"}, rec.failures)
	assert.Equal(t, []string{OutcomePartial}, rec.outcomes)
}

func TestRun_SynthesisFailureIsIsolated(t *testing.T) {
	synth := &fakeSynthesizer{failFor: map[string]bool{"https://a.com": true}}
	o := newTestOrchestrator(&fakeSnapshotter{}, synth, nil, Options{})

	report, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com", "https://b.com"})
	require.NoError(t, err)
	require.Len(t, report.Competitors, 1)
	assert.Equal(t, "https://b.com", report.Competitors[0].URL)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, entity.StageSynthesis, report.Failures[0].Stage)
	assert.Equal(t, 0, report.Failures[0].Index)
}

func TestRun_AllCompetitorsFail(t *testing.T) {
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://a.com": {err: &entity.FetchError{URL: "https://a.com", StatusCode: 503}},
		"https://b.com": {err: &entity.ParseError{URL: "https://b.com", Reason: "no title"}},
	}}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, rec, Options{})

	report, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com", "https://b.com"})
	require.Nil(t, report)

	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	require.Len(t, ide.Failures, 2)
	assert.Equal(t, 0, ide.Failures[0].Index)
	assert.Equal(t, 1, ide.Failures[1].Index)
	assert.ElementsMatch(t, []string{"fetch:fetch", "fetch:parse"}, rec.failures)
	assert.Equal(t, []string{OutcomeInsufficient}, rec.outcomes)
}

func TestRun_SubjectFailureIsFatal(t *testing.T) {
	subjectErr := &entity.FetchError{URL: "https://mine.com", StatusCode: 404}
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://mine.com": {err: subjectErr},
	}}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, nil, Options{})

	report, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com"})
	assert.Nil(t, report)
	var fe *entity.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
}

func TestRun_CallerDeadline(t *testing.T) {
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://a.com": {hang: true},
	}}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, nil, Options{StageTimeout: 5 * time.Second, FetchTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	report, err := o.Run(ctx, "https://mine.com", []string{"https://a.com"})
	assert.Nil(t, report)
	var pte *PipelineTimeoutError
	require.ErrorAs(t, err, &pte)
	assert.Equal(t, StageFetch, pte.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_PipelineTimeoutOption(t *testing.T) {
	snap := &fakeSnapshotter{behavior: map[string]fetchBehavior{
		"https://mine.com": {hang: true},
	}}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, nil, Options{PipelineTimeout: 40 * time.Millisecond})

	_, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com"})
	var pte *PipelineTimeoutError
	require.ErrorAs(t, err, &pte)
	assert.Equal(t, StageSubject, pte.Stage)
}

func TestRun_StrategicFallback(t *testing.T) {
	synth := &fakeSynthesizer{
		threat:       map[string]entity.ThreatLevel{"https://a.com": entity.ThreatHigh},
		strategicErr: errors.New("model unavailable"),
	}
	o := newTestOrchestrator(&fakeSnapshotter{}, synth, nil, Options{})

	report, err := o.Run(context.Background(), "https://mine.com", []string{"https://a.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.StrategicSourceHeuristic, report.StrategicInsights.Source)
	assert.Equal(t, entity.PositionLagging, report.StrategicInsights.OverallCompetitivePosition)
	assert.Equal(t, 1, report.CriticalActionCount)
	assert.True(t, report.SummaryConsistent())
}

func TestRun_ValidationStopsEarly(t *testing.T) {
	rec := &fakeRecorder{}
	snap := &fakeSnapshotter{}
	o := newTestOrchestrator(snap, &fakeSynthesizer{}, rec, Options{})

	cases := map[string][]string{
		"none":  {},
		"six":   {"a.com", "b.com", "c.com", "d.com", "e.com", "f.com"},
		"blank": {"a.com", "   "},
		"ftp":   {"ftp://files.example.com"},
	}
	for name, comps := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := o.Run(context.Background(), "https://mine.com", comps)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Len(t, rec.outcomes, len(cases))
	for _, out := range rec.outcomes {
		assert.Equal(t, OutcomeInvalid, out)
	}
}
