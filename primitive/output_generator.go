package primitive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/internal/util"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/variable"
	"github.com/itchyny/gojq"
)

// OutputGenerator implements the dependency-free deterministic transform
// primitive, registered under the step type "output-generator". It never
// invokes a model: it only reshapes/parses values already present in the
// execution context.
type OutputGenerator struct {
	logger logging.Logger
}

// OutputGeneratorOption configures an OutputGenerator.
type OutputGeneratorOption func(*OutputGenerator)

// WithOutputGeneratorLogger overrides the primitive's logger.
func WithOutputGeneratorLogger(logger logging.Logger) OutputGeneratorOption {
	return func(p *OutputGenerator) { p.logger = logger }
}

// NewOutputGenerator constructs the output-generator primitive.
func NewOutputGenerator(opts ...OutputGeneratorOption) *OutputGenerator {
	p := &OutputGenerator{logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle implements handler.Func.
func (p *OutputGenerator) Handle(ctx context.Context, config map[string]any) (handler.Output, error) {
	ectx := execctx.FromContext(ctx)
	if ectx == nil {
		return handler.Output{}, fmt.Errorf("output-generator: no execution context attached")
	}

	rawJSON, hasJSON := config["json"]
	rawTemplate, hasTemplate := config["template"]

	var parsedJSON any
	if hasJSON {
		resolved, err := variable.Resolve(rawJSON, ectx)
		if err != nil {
			return handler.Output{}, fmt.Errorf("output-generator: resolving json: %w", err)
		}
		parsedJSON = p.parseJSON(resolved, config)
		ectx.Set("json", parsedJSON)
	}

	if hasTemplate {
		resolved, err := variable.Resolve(rawTemplate, ectx)
		if err != nil {
			return handler.Output{}, fmt.Errorf("output-generator: resolving template: %w", err)
		}
		if m, ok := resolved.(map[string]any); ok {
			return handler.NewRecord(m), nil
		}
		return handler.NewRecord(map[string]any{"value": resolved}), nil
	}

	if hasJSON {
		if m, ok := parsedJSON.(map[string]any); ok {
			return handler.NewRecord(m), nil
		}
		if parsedJSON != nil {
			return handler.NewRecord(map[string]any{"value": parsedJSON}), nil
		}
	}

	return handler.NewRecord(map[string]any{}), nil
}

// parseJSON extracts and parses a JSON value out of resolved, applying an
// optional gojq query (config["query"]) to the parsed result. Non-string
// values are used as-is without extraction; the query applies to them too.
func (p *OutputGenerator) parseJSON(resolved any, config map[string]any) any {
	var value any
	switch v := resolved.(type) {
	case string:
		candidate, ok := util.ExtractJSON(v)
		if !ok {
			candidate = v
		}
		if err := json.Unmarshal([]byte(candidate), &value); err != nil {
			p.logger.Warn("output-generator: failed to parse json string, using empty object", "error", err.Error())
			return map[string]any{}
		}
	default:
		value = v
	}

	if query, ok := config["query"].(string); ok && query != "" {
		result, err := applyJQ(query, value)
		if err != nil {
			p.logger.Warn("output-generator: jq query failed, ignoring", "query", query, "error", err.Error())
			return value
		}
		return result
	}
	return value
}

func applyJQ(expression string, value any) (any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parsing jq expression: %w", err)
	}
	code, err := gojq.Compile(query, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}
	iter := code.Run(value)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, err
		}
		results = append(results, v)
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}
