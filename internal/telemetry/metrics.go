// Package telemetry counts what each run did. jobfeed is a batch job, so the
// numbers are pushed to a Prometheus Pushgateway at the end of a run instead
// of being scraped.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// Metrics holds the collectors for one task (scrape, backfill or logos) on a
// private registry. The task is not a metric label: it becomes part of the
// Pushgateway grouping key, and the gateway rejects metrics whose labels
// clash with the grouping key or with job.
type Metrics struct {
	task     string
	registry *prometheus.Registry

	Sources     *prometheus.CounterVec
	Candidates  *prometheus.CounterVec
	Items       *prometheus.CounterVec
	LastSuccess prometheus.Gauge
	RunDuration prometheus.Gauge
}

// New registers all collectors on a fresh registry for task.
func New(task string) *Metrics {
	m := &Metrics{
		task:     task,
		registry: prometheus.NewRegistry(),
		Sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_sources_total",
			Help: "Sources processed, by strategy and outcome (ok, error, skipped)",
		}, []string{"strategy", "outcome"}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_candidates_total",
			Help: "Scraped candidates, by pipeline stage they ended in",
		}, []string{"strategy", "stage"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_items_total",
			Help: "Rows handled by the backfill and logos tasks, by outcome",
		}, []string{"outcome"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobfeed_last_success_timestamp_seconds",
			Help: "Unix time the task last finished",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobfeed_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
	m.registry.MustRegister(m.Sources, m.Candidates, m.Items, m.LastSuccess, m.RunDuration)
	return m
}

// Task returns the task name the metrics are pushed under.
func (m *Metrics) Task() string {
	return m.task
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSource records one finished source.
func (m *Metrics) ObserveSource(r model.SourceResult) {
	outcome := "ok"
	switch {
	case r.Skipped:
		outcome = "skipped"
	case r.Err != nil:
		outcome = "error"
	}
	m.Sources.WithLabelValues(r.Strategy, outcome).Inc()

	m.Candidates.WithLabelValues(r.Strategy, "new").Add(float64(r.New))
	m.Candidates.WithLabelValues(r.Strategy, "duplicate").Add(float64(r.Duplicates))
	m.Candidates.WithLabelValues(r.Strategy, "filtered").Add(float64(r.Filtered))
}

// ObserveRun records the end of a scrape run.
func (m *Metrics) ObserveRun(s model.RunSummary) {
	m.RunDuration.Set(s.FinishedAt.Sub(s.StartedAt).Seconds())
	m.LastSuccess.Set(float64(s.FinishedAt.Unix()))
}

// ObserveJob records the outcome of a backfill or logos run.
func (m *Metrics) ObserveJob(r model.JobReport) {
	m.Items.WithLabelValues("updated").Add(float64(r.Updated))
	m.Items.WithLabelValues("skipped").Add(float64(r.Skipped))
	m.Items.WithLabelValues("failed").Add(float64(r.Failed))
	m.RunDuration.Set(r.FinishedAt.Sub(r.StartedAt).Seconds())
	m.LastSuccess.Set(float64(r.FinishedAt.Unix()))
}

// Push sends every collected metric to the Pushgateway at url, grouped by job
// and task. A push replaces only what the same task pushed before.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	p := push.New(url, job).Grouping("task", m.task).Gatherer(m.registry)
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
