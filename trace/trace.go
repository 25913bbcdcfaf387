// Package trace implements the observability plane: a closed, payload-free
// event schema, a sanitized error classifier, and pluggable recorders
// (in-memory accumulation plus an optional Prometheus companion). Trace
// events never carry configuration values, resolved variables, prompts,
// tool arguments, or raw error text — see logging for the richer,
// operator-only channel.
package trace

import "time"

// EventType enumerates the three lifecycle points a step can emit.
type EventType string

const (
	// EventStepStart is emitted immediately before a handler is invoked.
	EventStepStart EventType = "step-start"
	// EventStepComplete is emitted after a handler returns successfully.
	EventStepComplete EventType = "step-complete"
	// EventStepError is emitted after a handler returns an error.
	EventStepError EventType = "step-error"
)

// ErrorType is the closed set of sanitized error classifications.
type ErrorType string

const (
	ErrorTimeout    ErrorType = "timeout"
	ErrorAuthFailed ErrorType = "auth_failed"
	ErrorValidation ErrorType = "validation"
	ErrorNetwork    ErrorType = "network"
	ErrorUnknown    ErrorType = "unknown"
)

// Event is the closed, payload-free record of a single step lifecycle
// transition. Additive fields require explicit sign-off; do not widen this
// struct casually.
type Event struct {
	Type       EventType `json:"type"`
	StepID     string    `json:"stepId"`
	StepType   string    `json:"stepType"`
	StepIndex  int       `json:"stepIndex"`
	TotalSteps int       `json:"totalSteps"`
	Timestamp  time.Time `json:"timestamp"`

	// Duration is set on complete/error events only.
	Duration time.Duration `json:"duration,omitempty"`
	// ErrorType is set on error events only.
	ErrorType ErrorType `json:"errorType,omitempty"`
}

// NewStartEvent builds a step-start event.
func NewStartEvent(stepID, stepType string, index, total int, at time.Time) Event {
	return Event{Type: EventStepStart, StepID: stepID, StepType: stepType, StepIndex: index, TotalSteps: total, Timestamp: at}
}

// NewCompleteEvent builds a step-complete event.
func NewCompleteEvent(stepID, stepType string, index, total int, at time.Time, dur time.Duration) Event {
	return Event{Type: EventStepComplete, StepID: stepID, StepType: stepType, StepIndex: index, TotalSteps: total, Timestamp: at, Duration: dur}
}

// NewErrorEvent builds a step-error event, classifying err via Classify.
// The original error is never stored on the event.
func NewErrorEvent(stepID, stepType string, index, total int, at time.Time, dur time.Duration, err error) Event {
	return Event{Type: EventStepError, StepID: stepID, StepType: stepType, StepIndex: index, TotalSteps: total, Timestamp: at, Duration: dur, ErrorType: Classify(err)}
}
