// Package metrics exposes pipeline and auth counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector satisfies analysis.Recorder, auth.Recorder and radar.Recorder.
type Collector struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	compFailures *prometheus.CounterVec
	authEvents   *prometheus.CounterVec
	sideEffects  *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "radar_pipeline_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
		}),
		compFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_competitor_failures_total",
			Help: "Competitors dropped from a report, by stage and reason.",
		}, []string{"stage", "reason"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_auth_events_total",
			Help: "Magic-link requests and verifications by outcome.",
		}, []string{"event", "outcome"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_report_side_effects_total",
			Help: "Best-effort work after a report is saved, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(c.runs, c.runDuration, c.compFailures, c.authEvents, c.sideEffects)
	return c
}

func (c *Collector) RunFinished(outcome string, elapsed time.Duration) {
	c.runs.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

func (c *Collector) CompetitorFailed(stage, reason string) {
	c.compFailures.WithLabelValues(stage, reason).Inc()
}

func (c *Collector) AuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) SideEffect(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.sideEffects.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
