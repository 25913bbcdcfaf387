package mcptool

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestProxyToolExposesDefinition(t *testing.T) {
	def := mcp.Tool{
		Name:        "search",
		Description: "search the web",
	}
	def.InputSchema.Properties = map[string]any{"query": map[string]any{"type": "string"}}
	def.InputSchema.Required = []string{"query"}

	b := &Bridge{name: "test-server", callTimeout: DefaultCallTimeout}
	p := &ProxyTool{bridge: b, def: def}

	assert.Equal(t, "search", p.Name())
	assert.Equal(t, "search the web", p.Description())

	params := p.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, def.InputSchema.Properties, params["properties"])
	assert.Equal(t, []string{"query"}, params["required"])
}

func TestProxyToolParametersOmitsRequiredWhenEmpty(t *testing.T) {
	def := mcp.Tool{Name: "noop"}
	p := &ProxyTool{bridge: &Bridge{}, def: def}

	params := p.Parameters()
	_, hasRequired := params["required"]
	assert.False(t, hasRequired)
}

func TestBridgeToolsWrapsEveryDefinition(t *testing.T) {
	b := &Bridge{tools: []mcp.Tool{{Name: "a"}, {Name: "b"}}}
	tools := b.Tools()
	assert.Len(t, tools, 2)
	assert.Equal(t, "a", tools[0].Name())
	assert.Equal(t, "b", tools[1].Name())
}

func TestContentTextConcatenatesTextParts(t *testing.T) {
	content := []mcp.Content{
		mcp.TextContent{Type: "text", Text: "hello "},
		mcp.TextContent{Type: "text", Text: "world"},
	}
	assert.Equal(t, "hello world", contentText(content))
}
