package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the ingestion pipeline.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	SegmentsStoredTotal prometheus.Counter
	BatchFailuresTotal  *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	JobsDispatchedTotal *prometheus.CounterVec
	WarningsTotal       prometheus.Counter
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_sync_runs_total",
				Help: "Total ingestion runs by outcome and failing step",
			},
			[]string{"outcome", "step"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_sync_step_duration_seconds",
				Help:    "Duration of each pipeline step",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"step"},
		),
		SegmentsStoredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meeting_sync_segments_stored_total",
				Help: "Transcript segments inserted",
			},
		),
		BatchFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_sync_batch_failures_total",
				Help: "Artifact insert batches that failed and were skipped",
			},
			[]string{"collection"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_sync_notifications_total",
				Help: "Transcript-ready notifications by outcome",
			},
			[]string{"outcome"},
		),
		JobsDispatchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_sync_jobs_dispatched_total",
				Help: "Analysis job creations by type and status",
			},
			[]string{"job_type", "status"},
		),
		WarningsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meeting_sync_warnings_total",
				Help: "Degraded conditions recorded on run reports",
			},
		),
	}
}
