package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/model"
)

type stubTool struct{ name string }

func (s *stubTool) Name() string                    { return s.name }
func (s *stubTool) Description() string             { return "stub" }
func (s *stubTool) Parameters() map[string]any      { return map[string]any{} }
func (s *stubTool) Call(context.Context, map[string]any) (any, error) { return "ok", nil }

func TestHandlersRegisterLookup(t *testing.T) {
	h := NewHandlers(logging.NoOpLogger{})

	_, ok := h.Lookup("llm")
	assert.False(t, ok)

	fn := func(ctx context.Context, cfg map[string]any) (handler.Output, error) {
		return handler.NewRecord(map[string]any{"ok": true}), nil
	}
	h.Register("llm", fn)

	got, ok := h.Lookup("llm")
	require.True(t, ok)
	out, err := got(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out.Record())
}

func TestHandlersNamesReflectsRegistered(t *testing.T) {
	h := NewHandlers(logging.NoOpLogger{})
	h.Register("llm", func(context.Context, map[string]any) (handler.Output, error) { return handler.Output{}, nil })
	h.Register("chat", func(context.Context, map[string]any) (handler.Output, error) { return handler.Output{}, nil })

	assert.ElementsMatch(t, []string{"llm", "chat"}, h.Names())
}

type warnCounter struct {
	logging.NoOpLogger
	warns int
}

func (w *warnCounter) Warn(string, ...any) { w.warns++ }

func TestHandlersOverrideWarns(t *testing.T) {
	logger := &warnCounter{}
	h := NewHandlers(logger)
	noop := func(context.Context, map[string]any) (handler.Output, error) { return handler.Output{}, nil }
	h.Register("llm", noop)
	assert.Equal(t, 0, logger.warns)
	h.Register("llm", noop) // should not panic; last write wins
	assert.Equal(t, 1, logger.warns)
	_, ok := h.Lookup("llm")
	assert.True(t, ok)
}

func TestProvidersCreateUnknown(t *testing.T) {
	p := NewProviders(logging.NoOpLogger{})
	_, err := p.Create("anthropic", nil)
	assert.Error(t, err)
}

func TestProvidersCreateRegistered(t *testing.T) {
	p := NewProviders(logging.NoOpLogger{})
	p.Register("stub", func(cfg map[string]any) (model.Model, error) { return nil, nil })

	m, err := p.Create("stub", nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestToolsRegisterAndGet(t *testing.T) {
	tools := NewTools(logging.NoOpLogger{})
	tools.Register(&stubTool{name: "notes"})

	got, err := tools.Get("notes")
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Name())

	_, err = tools.Get("missing")
	assert.Error(t, err)
}

func TestCallbacksRegisterAndLookup(t *testing.T) {
	cb := NewCallbacks(logging.NoOpLogger{})
	called := false
	cb.Register("onFinish", func(payload map[string]any) { called = true })

	fn, ok := cb.Lookup("onFinish")
	require.True(t, ok)
	fn(map[string]any{})
	assert.True(t, called)

	_, ok = cb.Lookup("missing")
	assert.False(t, ok)
}

func TestNewBundlesAllRegistries(t *testing.T) {
	reg := New(logging.NoOpLogger{})
	assert.NotNil(t, reg.Handlers)
	assert.NotNil(t, reg.Providers)
	assert.NotNil(t, reg.Tools)
	assert.NotNil(t, reg.Callbacks)
}
