package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/internal/util"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// FlowMesh tool. Arguments are validated against the declared JSON Schema
// using santhosh-tekuri/jsonschema (draft 2020-12 subset) before the
// function runs, replacing hand-rolled type-check validation with proper
// JSON Schema semantics (enum, format, nested object/array constraints).
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	schema      *jsonschema.Schema
	fn          func(ctx context.Context, args map[string]any) (any, error)
	logger      logging.Logger
}

// Option configures a FunctionTool at construction time.
type Option func(*FunctionTool)

// WithLogger overrides the tool's logger (default logging.NoOpLogger).
func WithLogger(logger logging.Logger) Option {
	return func(t *FunctionTool) { t.logger = logger }
}

// NewFunctionTool constructs a FunctionTool from an explicit JSON Schema and
// implementation function. It panics if parameters is not a compilable JSON
// Schema — call sites supply schemas at init time, so a malformed schema is
// a programming error, not a runtime condition to recover from.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	opts ...Option,
) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
		logger:      logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.schema = mustCompileSchema(name, parameters)
	return t
}

// NewFunctionToolFromStruct derives the parameter schema from a struct via
// reflection (util.CreateSchema), a convenience for simple argument containers.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	opts ...Option,
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, opts...)
}

func mustCompileSchema(name string, parameters map[string]any) *jsonschema.Schema {
	if parameters == nil {
		parameters = map[string]any{"type": "object"}
	}
	data, err := json.Marshal(parameters)
	if err != nil {
		panic(fmt.Sprintf("tool %s: parameters not JSON-serializable: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	resourceName := name + ".json"
	res, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid schema document: %v", name, err))
	}
	if err := compiler.AddResource(resourceName, res); err != nil {
		panic(fmt.Sprintf("tool %s: cannot register schema: %v", name, err))
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		panic(fmt.Sprintf("tool %s: schema does not compile: %v", name, err))
	}
	return schema
}

// Name returns the unique tool name used in function-call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON Schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the compiled schema then invokes the
// underlying function.
//
// Error semantics:
//   - *ToolError returned directly by fn is forwarded unchanged
//   - schema validation failure -> *ToolError{Code: "VALIDATION_ERROR"}
//   - any other error from fn   -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	start := time.Now()
	t.logger.Debug("tool call started", "tool", t.name)

	if err := t.schema.Validate(args); err != nil {
		t.logger.Warn("tool call validation failed", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			t.logger.Error("tool call failed", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}
		t.logger.Error("tool call failed", "tool", t.name, "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: "EXECUTION_ERROR"}
	}

	t.logger.Info("tool call succeeded", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
