// Package mcptool bridges an external MCP server's tools into the Tool
// Registry, so a workflow's llm/chat primitives can bind to them exactly
// like any locally implemented tool.Tool. A server's tool list is fetched
// once at Connect time and each entry wrapped as an individual tool.Tool
// that proxies Call to a CallTool request over the live MCP session.
package mcptool

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultCallTimeout bounds a single tool invocation against the MCP server.
const DefaultCallTimeout = 30 * time.Second

// Bridge owns a connection to one MCP server and the tools it exposed at
// connect time.
type Bridge struct {
	name        string
	client      *client.Client
	tools       []mcp.Tool
	callTimeout time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithCallTimeout overrides DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.callTimeout = d }
}

// ConnectStdio launches command as a subprocess speaking MCP over stdio,
// initializes the session, and lists its tools once.
func ConnectStdio(ctx context.Context, name, command string, args []string, opts ...Option) (*Bridge, error) {
	c, err := client.NewStdioMCPClient(command, args)
	if err != nil {
		return nil, fmt.Errorf("mcptool: creating stdio client for %q: %w", name, err)
	}
	return connect(ctx, name, c, opts...)
}

// ConnectHTTP connects to an MCP server exposed over streamable HTTP at url.
func ConnectHTTP(ctx context.Context, name, url string, opts ...Option) (*Bridge, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("mcptool: creating http client for %q: %w", name, err)
	}
	return connect(ctx, name, c, opts...)
}

func connect(ctx context.Context, name string, c *client.Client, opts ...Option) (*Bridge, error) {
	b := &Bridge{name: name, client: c, callTimeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(b)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcptool: starting client for %q: %w", name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = "2024-11-05"
	initReq.Params.Capabilities = mcp.ClientCapabilities{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "flowmesh", Version: "1.0.0"}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("mcptool: initializing session for %q: %w", name, err)
	}

	listCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := c.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcptool: listing tools for %q: %w", name, err)
	}
	if result != nil {
		b.tools = result.Tools
	}
	return b, nil
}

// Tools returns a tool.Tool wrapper for every tool the server advertised.
func (b *Bridge) Tools() []*ProxyTool {
	out := make([]*ProxyTool, 0, len(b.tools))
	for _, t := range b.tools {
		out = append(out, &ProxyTool{bridge: b, def: t})
	}
	return out
}

// Close terminates the underlying MCP session.
func (b *Bridge) Close() error {
	return b.client.Close()
}

// ProxyTool implements tool.Tool by forwarding Call to the MCP server that
// advertised it.
type ProxyTool struct {
	bridge *Bridge
	def    mcp.Tool
}

// Name implements tool.Tool.
func (p *ProxyTool) Name() string { return p.def.Name }

// Description implements tool.Tool.
func (p *ProxyTool) Description() string { return p.def.Description }

// Parameters implements tool.Tool, translating the server's input schema
// into the plain JSON-Schema map shape the rest of flowmesh expects.
func (p *ProxyTool) Parameters() map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": p.def.InputSchema.Properties,
	}
	if len(p.def.InputSchema.Required) > 0 {
		schema["required"] = p.def.InputSchema.Required
	}
	return schema
}

// Call implements tool.Tool.
func (p *ProxyTool) Call(ctx context.Context, args map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.bridge.callTimeout)
	defer cancel()

	result, err := p.bridge.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      p.def.Name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mcptool: calling %q on %q: %w", p.def.Name, p.bridge.name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("mcptool: %q reported an error: %s", p.def.Name, contentText(result.Content))
	}
	return contentText(result.Content), nil
}

func contentText(content []mcp.Content) string {
	var text string
	for _, c := range content {
		text += mcp.GetTextFromContent(c)
	}
	return text
}
