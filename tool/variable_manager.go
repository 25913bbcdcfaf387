package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/flowmesh/execctx"
)

// VariableTool exposes read/write access to the current execution's variable
// map ($stepResult.* namespace) as a callable tool, for manifests that want
// a model to inspect or stash intermediate values explicitly rather than
// only through step "result" bindings.
//
// It reads the active execctx.Context via execctx.FromContext, which the
// executor attaches to the context.Context passed into every step and tool
// call. Calling it outside an Execute call returns an error.
type VariableTool struct {
	name        string
	description string
}

// NewVariableTool creates a new variable-management tool.
func NewVariableTool() *VariableTool {
	return &VariableTool{
		name:        "variable_manager",
		description: "Reads or writes workflow variables. Supports operations: get_variable, set_variable, list_variables.",
	}
}

// Name returns the tool identifier.
func (t *VariableTool) Name() string { return t.name }

// Description returns the tool description.
func (t *VariableTool) Description() string { return t.description }

// Parameters returns the JSON schema for tool parameters.
func (t *VariableTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        []string{"get_variable", "set_variable", "list_variables"},
				"description": "The variable operation to perform",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Variable name for get_variable/set_variable operations",
			},
			"value": map[string]any{
				"description": "Value for set_variable operations (any type)",
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface.
func (t *VariableTool) Call(ctx context.Context, args map[string]any) (any, error) {
	ectx := execctx.FromContext(ctx)
	if ectx == nil {
		return nil, fmt.Errorf("variable_manager: no execution context attached")
	}

	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_variable":
		return t.handleGet(args, ectx)
	case "set_variable":
		return t.handleSet(args, ectx)
	case "list_variables":
		return t.handleList(ectx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func (t *VariableTool) handleGet(args map[string]any, ectx *execctx.Context) (any, error) {
	name, ok := args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("name parameter is required for get_variable operation")
	}
	value, exists := ectx.Variable(name)
	return map[string]any{"name": name, "exists": exists, "value": value}, nil
}

func (t *VariableTool) handleSet(args map[string]any, ectx *execctx.Context) (any, error) {
	name, ok := args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("name parameter is required for set_variable operation")
	}
	value := args["value"]
	ectx.Set(name, value)
	return map[string]any{"name": name, "value": value, "success": true}, nil
}

func (t *VariableTool) handleList(ectx *execctx.Context) (any, error) {
	vars := ectx.Variables()
	names := make([]string, 0, vars.Len())
	for pair := vars.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return map[string]any{"names": names, "count": len(names)}, nil
}
