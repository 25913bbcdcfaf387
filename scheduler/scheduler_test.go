package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/registry"
)

func TestSchedule_RejectsInvalidCronExpression(t *testing.T) {
	s := New()
	m := &manifest.Manifest{}
	reg := registry.New(logging.NoOpLogger{})

	err := s.Schedule("job-1", "not a cron expression", m, reg, nil)
	assert.Error(t, err)
}

func TestSchedule_RunInvokesOnResultWithSuccess(t *testing.T) {
	reg := registry.New(logging.NoOpLogger{})
	reg.Handlers.Register("step", func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.NewRecord(map[string]any{"ok": true}), nil
	})
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "step"}}}

	var mu sync.Mutex
	var got RunResult
	s := New(WithOnResult(func(r RunResult) {
		mu.Lock()
		got = r
		mu.Unlock()
	}))

	require.NoError(t, s.Schedule("job-1", "* * * * *", m, reg, nil))
	s.run(&job{id: "job-1", manifest: m, registry: reg})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "job-1", got.JobID)
	assert.NoError(t, got.Err)
	assert.Equal(t, map[string]any{"ok": true}, got.Output)
}

func TestSchedule_RunInvokesOnResultWithFailure(t *testing.T) {
	reg := registry.New(logging.NoOpLogger{})
	reg.Handlers.Register("fail", func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.Output{}, assert.AnError
	})
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "fail"}}}

	var mu sync.Mutex
	var got RunResult
	s := New(WithOnResult(func(r RunResult) {
		mu.Lock()
		got = r
		mu.Unlock()
	}))

	s.run(&job{id: "job-2", manifest: m, registry: reg})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "job-2", got.JobID)
	assert.ErrorIs(t, got.Err, assert.AnError)
}

func TestStartStop(t *testing.T) {
	s := New()
	s.Start()
	s.Stop()
}
