package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelAppliesDefaults(t *testing.T) {
	m := NewModel()
	assert.Equal(t, anthropic.ModelClaude3_5Sonnet20241022, m.opts.Model)
	assert.Equal(t, 0.7, m.opts.Temperature)
	assert.EqualValues(t, 4096, m.opts.MaxTokens)
}

func TestNewModelAppliesOptions(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = anthropic.ModelClaude3Opus20240229
		o.Temperature = 0.2
	})
	assert.Equal(t, anthropic.ModelClaude3Opus20240229, m.opts.Model)
	assert.Equal(t, 0.2, m.opts.Temperature)
}

func TestFactoryBuildsModelFromConfig(t *testing.T) {
	factory := NewFactory()
	mdl, err := factory(map[string]any{"model": string(anthropic.ModelClaude3Opus20240229), "temperature": 0.1})
	require.NoError(t, err)
	m, ok := mdl.(*Model)
	require.True(t, ok)
	assert.Equal(t, anthropic.ModelClaude3Opus20240229, m.opts.Model)
	assert.Equal(t, 0.1, m.opts.Temperature)
}

func TestFactoryFallsBackToDefaultsWhenConfigEmpty(t *testing.T) {
	factory := NewFactory()
	mdl, err := factory(map[string]any{})
	require.NoError(t, err)
	m, ok := mdl.(*Model)
	require.True(t, ok)
	assert.Equal(t, anthropic.ModelClaude3_5Sonnet20241022, m.opts.Model)
}
