package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordIsNotStream(t *testing.T) {
	out := NewRecord(map[string]any{"text": "hi"})
	assert.False(t, out.IsStream())
	assert.Equal(t, map[string]any{"text": "hi"}, out.Record())
}

func TestNewStreamIsStream(t *testing.T) {
	chunks := make(chan StreamChunk)
	close(chunks)

	out := NewStream(chunks)
	assert.True(t, out.IsStream())
	assert.NotNil(t, out.StreamValue())
}
