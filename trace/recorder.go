package trace

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives trace events as they are emitted by the executor, in
// addition to (not instead of) the accumulation into Context.trace. A
// Recorder must not block the executor for long; slow sinks should buffer
// internally.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(Event)

// Record implements Recorder.
func (f RecorderFunc) Record(ev Event) { f(ev) }

// MultiRecorder fans an event out to every recorder in order.
type MultiRecorder []Recorder

// Record implements Recorder.
func (m MultiRecorder) Record(ev Event) {
	for _, r := range m {
		r.Record(ev)
	}
}

// PrometheusRecorder observes step durations and counts step outcomes.
// Labels are restricted to step_type, outcome and error_type, deliberately excluding
// step_id (author-controlled, potentially high cardinality or otherwise
// configuration-derived) to keep with the "no configuration values in
// observability surfaces" rule.
type PrometheusRecorder struct {
	once sync.Once

	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewPrometheusRecorder builds a PrometheusRecorder and registers its
// collectors against reg (pass prometheus.DefaultRegisterer for the global registry).
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowmesh",
			Subsystem: "executor",
			Name:      "step_duration_seconds",
			Help:      "Duration of workflow step execution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step_type"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowmesh",
			Subsystem: "executor",
			Name:      "steps_total",
			Help:      "Total number of workflow steps executed, by outcome.",
		}, []string{"step_type", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowmesh",
			Subsystem: "executor",
			Name:      "step_errors_total",
			Help:      "Total number of workflow step errors, by classification.",
		}, []string{"step_type", "error_type"}),
	}
	reg.MustRegister(r.duration, r.total, r.errors)
	return r
}

// Record implements Recorder.
func (r *PrometheusRecorder) Record(ev Event) {
	switch ev.Type {
	case EventStepComplete:
		r.duration.WithLabelValues(ev.StepType).Observe(ev.Duration.Seconds())
		r.total.WithLabelValues(ev.StepType, "complete").Inc()
	case EventStepError:
		r.duration.WithLabelValues(ev.StepType).Observe(ev.Duration.Seconds())
		r.total.WithLabelValues(ev.StepType, "error").Inc()
		r.errors.WithLabelValues(ev.StepType, string(ev.ErrorType)).Inc()
	}
}
