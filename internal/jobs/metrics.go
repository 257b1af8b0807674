package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for batch report runs.
type Metrics struct {
	registry   *prometheus.Registry
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.GaugeVec
	degenerate *prometheus.GaugeVec
	lastRun    *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics on a dedicated registry. When shared is
// true the process wide instance is returned.
func NewMetrics(shared bool) *Metrics {
	if shared {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.NewRegistry())
		})
		return defaultMetrics
	}
	return buildMetrics(prometheus.NewRegistry())
}

// RunsCounter exposes the run counter, labelled by job and status.
func (m *Metrics) RunsCounter() *prometheus.CounterVec { return m.runs }

// RowsGauge exposes the rows-written gauge, labelled by job.
func (m *Metrics) RowsGauge() *prometheus.GaugeVec { return m.rows }

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	} else {
		t.metrics.lastRun.WithLabelValues(t.job).SetToCurrentTime()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveRows records how many rows a run wrote and how many of them carried
// an undefined profit margin.
func (m *Metrics) ObserveRows(job string, rows, degenerate int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(job).Set(float64(rows))
	m.degenerate.WithLabelValues(job).Set(float64(degenerate))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func buildMetrics(registry *prometheus.Registry) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_summary_runs_total",
		Help: "Total report runs partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_summary_failures_total",
		Help: "Total failed report runs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendor_summary_duration_seconds",
		Help:    "Duration in seconds of report runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vendor_summary_rows",
		Help: "Rows written by the last report run.",
	}, []string{"job"})
	degenerate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vendor_summary_undefined_margin_rows",
		Help: "Rows of the last run whose profit margin is NaN or infinite.",
	}, []string{"job"})
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vendor_summary_last_success_timestamp_seconds",
		Help: "Unix time of the last successful report run.",
	}, []string{"job"})
	registry.MustRegister(runs, failures, duration, rows, degenerate, lastRun)
	return &Metrics{
		registry:   registry,
		runs:       runs,
		failures:   failures,
		duration:   duration,
		rows:       rows,
		degenerate: degenerate,
		lastRun:    lastRun,
	}
}
