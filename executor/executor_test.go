package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/registry"
)

func recordHandler(record map[string]any) func(context.Context, map[string]any) (handler.Output, error) {
	return func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.NewRecord(record), nil
	}
}

func newTestRegistry() *registry.Registry {
	return registry.New(logging.NoOpLogger{})
}

func TestExecute_UnknownStepType(t *testing.T) {
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "does-not-exist"}}}
	e := New(m, newTestRegistry())

	_, err := e.Execute(context.Background(), nil)
	require.Error(t, err)
	var unknown *UnknownStepTypeError
	assert.ErrorAs(t, err, &unknown)
}

func TestExecute_StepErrorAborts(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("fail", func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.Output{}, assert.AnError
	})
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "fail"}}}

	_, err := New(m, reg).Execute(context.Background(), nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExecute_LastStepWithoutResultPassesThrough(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("step", recordHandler(map[string]any{"ok": true}))
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "step"}}}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)
}

func TestExecute_MaterializesVariablesWhenLastStepHasResult(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("step", recordHandler(map[string]any{"ok": true}))
	m := &manifest.Manifest{Workflow: []manifest.Step{{ID: "s1", Type: "step", Result: "out"}}}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	om, ok := out.(*orderedmap.OrderedMap[string, any])
	require.True(t, ok)
	v, present := om.Get("out")
	require.True(t, present)
	assert.Equal(t, map[string]any{"ok": true}, v)
}

func TestExecute_ReturnTemplateOverridesMaterializedVariables(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("step", recordHandler(map[string]any{"text": "hi"}))
	m := &manifest.Manifest{
		Workflow: []manifest.Step{{ID: "s1", Type: "step", Result: "out"}},
		Return:   map[string]any{"message": "$stepResult.out.text"},
	}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi"}, out)
}

func TestExecute_ReturnTemplateWrapsScalar(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("step", recordHandler(map[string]any{"text": "hi"}))
	m := &manifest.Manifest{
		Workflow: []manifest.Step{{ID: "s1", Type: "step", Result: "out"}},
		Return:   "$stepResult.out.text",
	}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": "hi"}, out)
}

func TestExecute_StreamingStepShortCircuits(t *testing.T) {
	reg := newTestRegistry()
	chunks := make(chan handler.StreamChunk)
	close(chunks)
	reg.Handlers.Register("stream", func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.NewStream(chunks), nil
	})
	reg.Handlers.Register("step", recordHandler(map[string]any{"unreached": true}))

	m := &manifest.Manifest{Workflow: []manifest.Step{
		{ID: "s1", Type: "stream"},
		{ID: "s2", Type: "step"},
	}}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	streamOut, ok := out.(handler.Output)
	require.True(t, ok)
	assert.True(t, streamOut.IsStream())
}

func TestExecute_AttachesTraceWhenObservabilityEnabled(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("step", recordHandler(map[string]any{"ok": true}))
	m := &manifest.Manifest{
		Metadata: manifest.Metadata{Observability: &manifest.Observability{Enabled: true}},
		Workflow: []manifest.Step{{ID: "s1", Type: "step"}},
	}

	out, err := New(m, reg).Execute(context.Background(), nil)
	require.NoError(t, err)
	record, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, record, "__trace")
}
