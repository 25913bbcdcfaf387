package primitive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/handler"
)

func drainChat(t *testing.T, out handler.Output) (text string, final map[string]any, streamErr error) {
	t.Helper()
	stream := out.StreamValue()
	require.NotNil(t, stream)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case chunk, ok := <-stream.Chunks:
			if !ok {
				return
			}
			text += chunk.TextDelta
			if chunk.Err != nil {
				streamErr = chunk.Err
			}
			if chunk.Finished {
				final = chunk.FinalRecord
			}
		case <-timeout:
			t.Fatal("timed out draining chat stream")
		}
	}
}

func TestChat_RequiresExecutionContext(t *testing.T) {
	p := NewChat(newTestRegistry())
	_, err := p.Handle(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestChat_AlwaysReturnsStream(t *testing.T) {
	p := NewChat(newTestRegistry())
	out, err := p.Handle(withCtx(nil), map[string]any{
		"provider": "mock",
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	})
	require.NoError(t, err)
	assert.True(t, out.IsStream())

	text, final, streamErr := drainChat(t, out)
	require.NoError(t, streamErr)
	assert.NotEmpty(t, text)
	require.NotNil(t, final)
	assert.Contains(t, final["text"], "hello")
}

func TestChat_RequiresMessages(t *testing.T) {
	p := NewChat(newTestRegistry())
	_, err := p.Handle(withCtx(nil), map[string]any{"provider": "mock"})
	assert.Error(t, err)
}
