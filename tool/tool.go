// Package tool implements the function/tool-calling subsystem the llm and
// chat primitives bind to models: named, schema-validated callables
// resolved through the Tool Registry (registry.Tools) and exposed to
// providers as model.ToolDefinition entries.
package tool

import (
	"context"
	"fmt"
)

// Tool defines a callable capability exposed to a model. Implementations
// should be safe for concurrent use — a single Tool instance is shared
// across every step and every concurrent Execute call that references it.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description is shown to the model to help it decide when and how to use the tool.
	Description() string

	// Parameters returns the JSON Schema describing accepted arguments.
	Parameters() map[string]any

	// Call executes the tool with the given arguments. Callers pass them as
	// decoded, unvalidated; FunctionTool validates them against Parameters()
	// itself.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ToolError represents errors that occur during tool execution or argument validation.
type ToolError struct {
	Tool    string
	Message string
	Code    string
	Details interface{}
}

// Error implements error.
func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
