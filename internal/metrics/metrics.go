package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contract pipeline.
// Tracks job outcomes and the duration of each processing stage.
type Metrics struct {
	JobsCompleted *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// New registers all pipeline metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contractfill_jobs_total",
			Help: "Total number of jobs reaching a status",
		}, []string{"status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contractfill_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
	}
}

// IncrementJob records a job reaching the given status.
func (m *Metrics) IncrementJob(status string) {
	if m == nil {
		return
	}
	m.JobsCompleted.WithLabelValues(status).Inc()
}

// ObserveStage records the duration of a pipeline stage.
// Call with time.Now() at the start of the stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
