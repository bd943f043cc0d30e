// Package metrics records ingest run metrics on a private Prometheus registry
// and writes them in node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run results used as the "result" label.
const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid_input"
	ResultError     = "error"
)

// Recorder holds the ingest metrics.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry
	now       func() time.Time

	runs          *prometheus.CounterVec
	coreRows      prometheus.Counter
	nullValues    prometheus.Counter
	datasetRows   *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
	stageDuration *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric name prefix.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a Recorder with its own registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "matchstats",
		registry:  prometheus.NewRegistry(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "ingest_runs_total",
		Help:      "Ingest runs by result.",
	}, []string{"result"})
	r.coreRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "core_rows_appended_total",
		Help:      "core_stats rows appended.",
	})
	r.nullValues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "null_metric_values_total",
		Help:      "Appended metric values that could not be read as numbers.",
	})
	r.datasetRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "dataset_rows",
		Help:      "Rows in each dataset after the last successful ingest.",
	}, []string{"dataset"})
	r.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful ingest.",
	})
	r.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"stage"})
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveStage records how long a pipeline stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunSucceeded records a successful ingest.
func (r *Recorder) RunSucceeded(coreRows, nullValues int, totals map[string]int) {
	r.runs.WithLabelValues(ResultSuccess).Inc()
	r.coreRows.Add(float64(coreRows))
	r.nullValues.Add(float64(nullValues))
	for name, n := range totals {
		r.datasetRows.WithLabelValues(name).Set(float64(n))
	}
	r.lastSuccess.Set(float64(r.now().Unix()))
}

// RunFailed records a failed ingest under result.
func (r *Recorder) RunFailed(result string) {
	r.runs.WithLabelValues(result).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
