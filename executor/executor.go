// Package executor implements the Workflow Executor: it drives a Manifest's
// steps strictly in order, dispatching each to its registered handler,
// threading an execctx.Context through the run, and computing the final
// return value once every step has completed (or short-circuiting on the
// first streaming Output).
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/registry"
	"github.com/hupe1980/flowmesh/trace"
	"github.com/hupe1980/flowmesh/variable"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Executor runs a single Manifest's workflow against a shared Registry.
// A single Executor value is reused across concurrent Execute calls: it
// holds no per-run state of its own, only the manifest, the registries it
// consults, and construction-time options (see spec's concurrency model:
// "the Executor is stateless across calls; each invocation owns its
// Context exclusively").
type Executor struct {
	manifest *manifest.Manifest
	registry *registry.Registry
	recorder trace.Recorder
	logger   logging.Logger

	depth    int
	maxDepth int
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithRecorder attaches a trace.Recorder invoked alongside the in-context
// trace log (e.g. a Prometheus companion).
func WithRecorder(rec trace.Recorder) Option {
	return func(e *Executor) { e.recorder = rec }
}

// WithLogger overrides the executor's logger (default logging.NoOpLogger).
func WithLogger(logger logging.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithDepth sets the sub-agent recursion depth this Executor's Context
// starts at (used by the call-agent primitive when constructing a child
// Executor for a nested manifest).
func WithDepth(depth int) Option {
	return func(e *Executor) { e.depth = depth }
}

// WithMaxDepth overrides execctx.DefaultMaxDepth.
func WithMaxDepth(max int) Option {
	return func(e *Executor) { e.maxDepth = max }
}

// New constructs an Executor bound to m and reg.
func New(m *manifest.Manifest, reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		manifest: m,
		registry: reg,
		recorder: trace.RecorderFunc(func(trace.Event) {}),
		logger:   logging.NoOpLogger{},
		maxDepth: execctx.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the manifest's workflow against input and returns either a
// handler.Output carrying a Stream (the caller must drain it) or the
// computed record value (a map[string]any or *orderedmap.OrderedMap).
func (e *Executor) Execute(ctx context.Context, input any) (any, error) {
	observabilityEnabled := e.manifest.Metadata.ObservabilityEnabled()

	ectx := execctx.New(
		input,
		execctx.WithObservability(observabilityEnabled),
		execctx.WithDepth(e.depth),
		execctx.WithMaxDepth(e.maxDepth),
	)
	ctx = execctx.WithContext(ctx, ectx)

	steps := e.manifest.Workflow
	n := len(steps)

	var lastResult map[string]any
	lastStepHasResult := false

	for i, step := range steps {
		fn, ok := e.registry.Handlers.Lookup(step.Type)
		if !ok {
			return nil, &UnknownStepTypeError{StepID: step.ID, StepType: step.Type, Registered: e.registry.Handlers.Names()}
		}

		now := time.Now()
		e.emit(ectx, trace.NewStartEvent(step.ID, step.Type, i, n, now))
		e.logger.LogStepStart(step.ID, step.Type, i, n)

		start := time.Now()
		out, err := fn(ctx, step.Config)
		dur := time.Since(start)

		if err != nil {
			e.emit(ectx, trace.NewErrorEvent(step.ID, step.Type, i, n, time.Now(), dur, err))
			e.logger.LogStepComplete(step.ID, step.Type, dur, false, err)
			return nil, err
		}

		e.emit(ectx, trace.NewCompleteEvent(step.ID, step.Type, i, n, time.Now(), dur))
		e.logger.LogStepComplete(step.ID, step.Type, dur, true, nil)

		if out.IsStream() {
			return out, nil
		}

		record := out.Record()
		lastStepHasResult = step.Result != ""
		if lastStepHasResult {
			ectx.Set(step.Result, record)
		}
		lastResult = record
	}

	return e.computeReturn(ectx, lastResult, lastStepHasResult)
}

// emit appends the event to the run's trace (a no-op when observability is
// disabled) and forwards it to the configured Recorder. Recorder failures
// never mask the original step outcome — there is nothing to fail here
// since Recorder.Record has no error return, but a panicking recorder is
// still isolated from the step's own result.
func (e *Executor) emit(ectx *execctx.Context, ev trace.Event) {
	ectx.AppendTrace(ev)
	func() {
		defer func() { _ = recover() }()
		e.recorder.Record(ev)
	}()
}

func (e *Executor) computeReturn(ectx *execctx.Context, lastResult map[string]any, lastStepHasResult bool) (any, error) {
	var out any

	switch {
	case e.manifest.Return != nil:
		resolved, err := variable.Resolve(e.manifest.Return, ectx)
		if err != nil {
			return nil, fmt.Errorf("executor: resolving return template: %w", err)
		}
		if m, ok := resolved.(map[string]any); ok {
			out = m
		} else {
			out = map[string]any{"value": resolved}
		}
	case !lastStepHasResult:
		out = lastResult
	default:
		out = ectx.Variables()
	}

	if trace := ectx.Trace(); len(trace) >= 1 {
		out = attachTrace(out, trace)
	}
	return out, nil
}

// attachTrace non-destructively adds the reserved __trace key to out,
// supporting both the plain-map and ordered-map return shapes.
func attachTrace(out any, events []trace.Event) any {
	switch v := out.(type) {
	case map[string]any:
		v["__trace"] = events
		return v
	case *orderedmap.OrderedMap[string, any]:
		v.Set("__trace", events)
		return v
	case nil:
		return map[string]any{"__trace": events}
	default:
		return map[string]any{"value": v, "__trace": events}
	}
}
