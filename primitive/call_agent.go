package primitive

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/executor"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/locator"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/registry"
	"github.com/hupe1980/flowmesh/variable"
)

// CallAgent implements the "call-agent" step type: it composes another
// manifest as a sub-workflow, resolving its path through a Locator and
// running it against a fresh Executor scoped one level deeper than the
// caller's Context.
type CallAgent struct {
	registry *registry.Registry
	locator  locator.Locator
}

// CallAgentOption configures a CallAgent.
type CallAgentOption func(*CallAgent)

// NewCallAgent constructs the call-agent primitive. loc resolves an agentId
// referenced by a step's config to a loadable manifest path.
func NewCallAgent(reg *registry.Registry, loc locator.Locator, opts ...CallAgentOption) *CallAgent {
	p := &CallAgent{registry: reg, locator: loc}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle implements handler.Func.
func (p *CallAgent) Handle(ctx context.Context, config map[string]any) (handler.Output, error) {
	ectx := execctx.FromContext(ctx)
	if ectx == nil {
		return handler.Output{}, fmt.Errorf("call-agent: no execution context attached")
	}

	resolved, err := variable.Resolve(config, ectx)
	if err != nil {
		return handler.Output{}, fmt.Errorf("call-agent: resolving config: %w", err)
	}
	cfg, ok := resolved.(map[string]any)
	if !ok {
		return handler.Output{}, newConfigError("config", "must be a mapping")
	}

	agentID, ok := cfg["agentId"].(string)
	if !ok || agentID == "" {
		return handler.Output{}, newConfigError("agentId", "required")
	}

	if ectx.DepthExceeded() {
		return handler.Output{}, &executor.DepthExceededError{MaxDepth: ectx.MaxDepth()}
	}

	subInput, hasInput := cfg["input"]
	if !hasInput {
		subInput = ectx.InputValue()
	}

	path, err := p.locator.Resolve(agentID)
	if err != nil {
		return handler.Output{}, fmt.Errorf("call-agent: %w", err)
	}

	subManifest, err := manifest.Load(path)
	if err != nil {
		return handler.Output{}, fmt.Errorf("call-agent: loading manifest for agent %q: %w", agentID, err)
	}

	subExecutor := executor.New(subManifest, p.registry,
		executor.WithDepth(ectx.Depth()+1),
		executor.WithMaxDepth(ectx.MaxDepth()),
	)

	result, err := subExecutor.Execute(ctx, subInput)
	if err != nil {
		return handler.Output{}, fmt.Errorf("call-agent: executing agent %q: %w", agentID, err)
	}

	if out, ok := result.(handler.Output); ok {
		return out, nil
	}

	return handler.NewRecord(toRecord(result)), nil
}

// toRecord normalizes an Executor return value (map[string]any,
// *orderedmap.OrderedMap[string, any], or any other value) into the plain
// map[string]any shape a handler.Output.Record requires.
func toRecord(v any) map[string]any {
	switch r := v.(type) {
	case map[string]any:
		return r
	case *orderedmap.OrderedMap[string, any]:
		out := make(map[string]any, r.Len())
		for pair := r.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value
		}
		return out
	case nil:
		return map[string]any{}
	default:
		return map[string]any{"value": r}
	}
}
