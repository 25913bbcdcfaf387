package primitive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/execctx"
)

func TestOutputGenerator_RequiresExecutionContext(t *testing.T) {
	p := NewOutputGenerator()
	_, err := p.Handle(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestOutputGenerator_ParsesFencedJSON(t *testing.T) {
	p := NewOutputGenerator()
	ectx := execctx.New(nil)
	ectx.Set("gen", map[string]any{"text": "```json\n{\"score\": 9}\n```"})
	ctx := execctx.WithContext(context.Background(), ectx)

	out, err := p.Handle(ctx, map[string]any{"json": "$stepResult.gen.text"})
	require.NoError(t, err)
	assert.Equal(t, float64(9), out.Record()["score"])
}

func TestOutputGenerator_TemplateOverridesJSON(t *testing.T) {
	p := NewOutputGenerator()
	ectx := execctx.New(nil)
	ectx.Set("gen", map[string]any{"text": `{"score": 9}`})
	ctx := execctx.WithContext(context.Background(), ectx)

	out, err := p.Handle(ctx, map[string]any{
		"json":     "$stepResult.gen.text",
		"template": map[string]any{"finalScore": "$json.score"},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(9), out.Record()["finalScore"])
}

func TestOutputGenerator_InvalidJSONFallsBackToEmptyObject(t *testing.T) {
	p := NewOutputGenerator()
	ctx := execctx.WithContext(context.Background(), execctx.New(nil))

	out, err := p.Handle(ctx, map[string]any{"json": "not json at all"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out.Record())
}

func TestOutputGenerator_TemplateStringWrapsAsValue(t *testing.T) {
	p := NewOutputGenerator()
	ectx := execctx.New(nil)
	ectx.Set("gen", map[string]any{"name": "ada"})
	ctx := execctx.WithContext(context.Background(), ectx)

	out, err := p.Handle(ctx, map[string]any{"template": "$stepResult.gen.name"})
	require.NoError(t, err)
	assert.Equal(t, "ada", out.Record()["value"])
}

func TestOutputGenerator_AppliesJQQuery(t *testing.T) {
	p := NewOutputGenerator()
	ctx := execctx.WithContext(context.Background(), execctx.New(nil))

	out, err := p.Handle(ctx, map[string]any{
		"json":  `{"items": [{"id": 1}, {"id": 2}]}`,
		"query": ".items | length",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.Record()["value"])
}
