// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	StageDuration     *prometheus.HistogramVec
	InputRows         *prometheus.GaugeVec
	OutputRows        *prometheus.GaugeVec
	RejectedRows      *prometheus.CounterVec

	// Sink metrics
	PublishDuration *prometheus.HistogramVec
	PublishErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "defi_cohort_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Full refresh duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		InputRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "input_rows",
			Help:      "Rows read per source table in the last run",
		}, []string{"source"}),
		OutputRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "output_rows",
			Help:      "Rows produced per output table in the last run",
		}, []string{"table"}),
		RejectedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "rejected_rows_total",
			Help:      "Rows dropped during cleaning by reason",
		}, []string{"reason"}),

		PublishDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publish_duration_seconds",
			Help:      "Snapshot publish duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
		PublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publish_errors_total",
			Help:      "Total number of failed publish attempts",
		}, []string{"sink"}),

		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPipelineRun records a finished pipeline run.
func (m *Metrics) RecordPipelineRun(status string, durationSeconds float64, finishedUnix int64) {
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.PipelineDuration.Observe(durationSeconds)
	if status == "success" {
		m.LastSuccessfulPipeline.Set(float64(finishedUnix))
	}
}

// RecordStage records the duration of a pipeline stage.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// SetRowCounts publishes per-table row counts.
func (m *Metrics) SetRowCounts(input, output map[string]int) {
	for k, v := range input {
		m.InputRows.WithLabelValues(k).Set(float64(v))
	}
	for k, v := range output {
		m.OutputRows.WithLabelValues(k).Set(float64(v))
	}
}

// RecordRejected adds rows dropped during cleaning.
func (m *Metrics) RecordRejected(reason string, n int) {
	if n > 0 {
		m.RejectedRows.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordPublish records one publish attempt to a sink.
func (m *Metrics) RecordPublish(sink string, seconds float64, err error) {
	m.PublishDuration.WithLabelValues(sink).Observe(seconds)
	if err != nil {
		m.PublishErrors.WithLabelValues(sink).Inc()
	}
}
