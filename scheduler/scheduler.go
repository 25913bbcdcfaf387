// Package scheduler drives periodic manifest execution on a cron schedule,
// constructing a fresh executor.Executor and execctx.Context for every
// firing so runs never share state across ticks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/flowmesh/executor"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/registry"
)

// RunResult captures the outcome of a single scheduled firing, passed to
// any registered OnResult callback.
type RunResult struct {
	JobID     string
	StartedAt time.Time
	Duration  time.Duration
	Output    any
	Err       error
}

// job pairs a manifest with the registry it executes against and the
// input it is invoked with on every firing.
type job struct {
	id       string
	manifest *manifest.Manifest
	registry *registry.Registry
	input    any
}

// Scheduler wraps a robfig/cron/v3 Cron, running a manifest's workflow
// against a fresh Executor each time its schedule fires.
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger

	mu       sync.Mutex
	onResult func(RunResult)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the scheduler's logger (default logging.NoOpLogger).
func WithLogger(logger logging.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithOnResult registers a callback invoked after every job firing,
// success or failure.
func WithOnResult(fn func(RunResult)) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

// New constructs a Scheduler. The standard five-field cron expression
// format (minute hour day-of-month month day-of-week) is used, matching
// robfig/cron/v3's default parser.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		logger: logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers m to run on cronExpr, invoked with input on every
// firing against reg. jobID identifies the job in RunResult and logs.
func (s *Scheduler) Schedule(jobID, cronExpr string, m *manifest.Manifest, reg *registry.Registry, input any) error {
	j := &job{id: jobID, manifest: m, registry: reg, input: input}
	_, err := s.cron.AddFunc(cronExpr, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q for job %q: %w", cronExpr, jobID, err)
	}
	return nil
}

func (s *Scheduler) run(j *job) {
	start := time.Now()
	s.logger.Info("scheduled job starting", "job_id", j.id)

	exec := executor.New(j.manifest, j.registry, executor.WithLogger(s.logger))
	out, err := exec.Execute(context.Background(), j.input)

	result := RunResult{JobID: j.id, StartedAt: start, Duration: time.Since(start), Output: out, Err: err}
	if err != nil {
		s.logger.Error("scheduled job failed", "job_id", j.id, "error", err.Error())
	} else {
		s.logger.Info("scheduled job completed", "job_id", j.id, "duration", result.Duration.String())
	}

	s.mu.Lock()
	cb := s.onResult
	s.mu.Unlock()
	if cb != nil {
		cb(result)
	}
}

// Start launches the cron scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and blocks until any in-flight job finishes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
