package execctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/trace"
)

func TestNewDefaults(t *testing.T) {
	c := New(map[string]any{"topic": "go"})
	assert.Equal(t, map[string]any{"topic": "go"}, c.InputValue())
	assert.False(t, c.TraceEnabled())
	assert.Equal(t, DefaultMaxDepth, c.MaxDepth())
	assert.Equal(t, 0, c.Depth())
	assert.False(t, c.DepthExceeded())
}

func TestSetAndVariable(t *testing.T) {
	c := New(nil)
	c.Set("step1", map[string]any{"text": "hi"})

	v, ok := c.Variable("step1")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hi"}, v)

	_, ok = c.Variable("missing")
	assert.False(t, ok)
}

func TestVariablesPreservesInsertionOrder(t *testing.T) {
	c := New(nil)
	c.Set("b", 2)
	c.Set("a", 1)
	c.Set("c", 3)

	var keys []string
	for pair := c.Variables().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
}

func TestAppendTraceNoopWhenDisabled(t *testing.T) {
	c := New(nil)
	c.AppendTrace(trace.NewStartEvent("s1", "llm", 0, 1, time.Now()))
	assert.Empty(t, c.Trace())
}

func TestAppendTraceWhenEnabled(t *testing.T) {
	c := New(nil, WithObservability(true))
	c.AppendTrace(trace.NewStartEvent("s1", "llm", 0, 1, time.Now()))
	assert.Len(t, c.Trace(), 1)
}

func TestDepthExceeded(t *testing.T) {
	c := New(nil, WithDepth(2), WithMaxDepth(2))
	assert.True(t, c.DepthExceeded())

	c2 := New(nil, WithDepth(1), WithMaxDepth(2))
	assert.False(t, c2.DepthExceeded())
}

func TestWithContextRoundTrip(t *testing.T) {
	c := New("input")
	ctx := WithContext(context.Background(), c)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "input", got.InputValue())
}

func TestFromContextMissing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
