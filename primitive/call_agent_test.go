package primitive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/locator"
)

const subManifestYAML = `
metadata:
  name: sub
  version: "1.0"
workflow:
  - id: gen
    type: llm
    config:
      provider: mock
      messages:
        - role: user
          content: "$input.text"
    result: gen
return:
  text: "$stepResult.gen.text"
`

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
}

func TestCallAgent_RequiresExecutionContext(t *testing.T) {
	reg := newTestRegistry()
	reg.Handlers.Register("llm", NewLLM(reg).Handle)
	p := NewCallAgent(reg, locator.Static{})
	_, err := p.Handle(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestCallAgent_RequiresAgentID(t *testing.T) {
	reg := newTestRegistry()
	p := NewCallAgent(reg, locator.Static{})
	_, err := p.Handle(withCtx(nil), map[string]any{})
	assert.Error(t, err)
}

func TestCallAgent_UnresolvableAgentFails(t *testing.T) {
	reg := newTestRegistry()
	p := NewCallAgent(reg, locator.Static{})
	_, err := p.Handle(withCtx(nil), map[string]any{"agentId": "missing"})
	assert.Error(t, err)
}

func TestCallAgent_ExecutesSubManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "sub", subManifestYAML)

	reg := newTestRegistry()
	reg.Handlers.Register("llm", NewLLM(reg).Handle)

	p := NewCallAgent(reg, locator.NewDirectory(dir))
	out, err := p.Handle(withCtx(nil), map[string]any{
		"agentId": "sub",
		"input":   map[string]any{"text": "hi there"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Record()["text"], "hi there")
}

func TestCallAgent_DepthExceededRefuses(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "sub", subManifestYAML)

	reg := newTestRegistry()
	reg.Handlers.Register("llm", NewLLM(reg).Handle)
	p := NewCallAgent(reg, locator.NewDirectory(dir))

	ectx := execctx.New(nil, execctx.WithDepth(execctx.DefaultMaxDepth), execctx.WithMaxDepth(execctx.DefaultMaxDepth))
	ctx := execctx.WithContext(context.Background(), ectx)

	_, err := p.Handle(ctx, map[string]any{"agentId": "sub", "input": map[string]any{"text": "x"}})
	assert.Error(t, err)
}
