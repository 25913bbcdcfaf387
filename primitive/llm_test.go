package primitive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/model"
	"github.com/hupe1980/flowmesh/registry"
)

func newTestRegistry() *registry.Registry {
	reg := registry.New(logging.NoOpLogger{})
	reg.Providers.Register("mock", func(cfg map[string]any) (model.Model, error) {
		return model.NewMockModel("mock-model", "mock"), nil
	})
	return reg
}

func withCtx(input any) context.Context {
	return execctx.WithContext(context.Background(), execctx.New(input))
}

func TestLLM_RequiresExecutionContext(t *testing.T) {
	p := NewLLM(newTestRegistry())
	_, err := p.Handle(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestLLM_RequiresMessages(t *testing.T) {
	p := NewLLM(newTestRegistry())
	_, err := p.Handle(withCtx(nil), map[string]any{"provider": "mock"})
	assert.Error(t, err)
}

func TestLLM_SimpleGeneration(t *testing.T) {
	p := NewLLM(newTestRegistry())
	out, err := p.Handle(withCtx(nil), map[string]any{
		"provider": "mock",
		"messages": []any{
			map[string]any{"role": "user", "content": "hello"},
		},
	})
	require.NoError(t, err)
	require.False(t, out.IsStream())
	assert.Contains(t, out.Record()["text"], "hello")
}

// fakeToolCallModel emits exactly one function call on its first Generate
// call, then a plain text response on every later call.
type fakeToolCallModel struct{ calls int }

func (f *fakeToolCallModel) Info() model.Info {
	return model.Info{Name: "fake", Provider: "fake", SupportsTools: true}
}

func (f *fakeToolCallModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		f.calls++
		if f.calls == 1 {
			respCh <- model.Response{
				Content: model.Content{Role: "assistant", Parts: []model.Part{
					model.FunctionCallPart{FunctionCall: model.FunctionCall{ID: "1", Name: "echo", Arguments: `{"msg":"hi"}`}},
				}},
			}
			return
		}
		respCh <- model.Response{Content: model.Content{Role: "assistant", Parts: []model.Part{model.TextPart{Text: "done"}}}}
	}()
	return respCh, errCh
}

type echoTool struct{}

func (echoTool) Name() string               { return "echo" }
func (echoTool) Description() string        { return "echoes its input" }
func (echoTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (echoTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return args["msg"], nil
}

func TestLLM_ToolLoopExecutesAndReturnsFinalText(t *testing.T) {
	reg := newTestRegistry()
	reg.Providers.Register("fake", func(cfg map[string]any) (model.Model, error) {
		return &fakeToolCallModel{}, nil
	})
	reg.Tools.Register(echoTool{})

	p := NewLLM(reg)
	out, err := p.Handle(withCtx(nil), map[string]any{
		"provider": "fake",
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"tools":    []any{"echo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Record()["text"])
}

func TestLLM_ToolLoopLimitExceeded(t *testing.T) {
	reg := newTestRegistry()
	reg.Providers.Register("looping", func(cfg map[string]any) (model.Model, error) {
		return &alwaysCallsModel{}, nil
	})
	reg.Tools.Register(echoTool{})

	p := NewLLM(reg, WithToolLoopLimit(2))
	_, err := p.Handle(withCtx(nil), map[string]any{
		"provider": "looping",
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"tools":    []any{"echo"},
	})
	assert.Error(t, err)
}

type alwaysCallsModel struct{}

func (alwaysCallsModel) Info() model.Info { return model.Info{Name: "loop", Provider: "loop"} }
func (alwaysCallsModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		respCh <- model.Response{Content: model.Content{Role: "assistant", Parts: []model.Part{
			model.FunctionCallPart{FunctionCall: model.FunctionCall{ID: "1", Name: "echo", Arguments: `{"msg":"hi"}`}},
		}}}
	}()
	return respCh, errCh
}
