package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/model"
	"github.com/hupe1980/flowmesh/registry"
	"github.com/hupe1980/flowmesh/tool"
	"github.com/hupe1980/flowmesh/variable"
)

// DefaultToolLoopLimit bounds the number of model turns the llm/chat
// primitives spend resolving tool calls before giving up, per spec's
// "recommended default: 5".
const DefaultToolLoopLimit = 5

// LLM implements the blocking generation primitive: config
// {provider?, model?, system?, messages, tools?, temperature?, maxTokens?},
// registered under the step type "llm". It resolves system/messages through
// the variable resolver with no format conversion — the resolved messages
// are assumed to already be in the model's native message shape — and never
// returns a stream.
type LLM struct {
	registry      *registry.Registry
	toolLoopLimit int
	logger        logging.Logger
}

// LLMOption configures an LLM primitive.
type LLMOption func(*LLM)

// WithToolLoopLimit overrides DefaultToolLoopLimit.
func WithToolLoopLimit(n int) LLMOption {
	return func(p *LLM) { p.toolLoopLimit = n }
}

// WithLLMLogger overrides the primitive's logger (default logging.NoOpLogger).
func WithLLMLogger(logger logging.Logger) LLMOption {
	return func(p *LLM) { p.logger = logger }
}

// NewLLM constructs the llm primitive bound to reg.
func NewLLM(reg *registry.Registry, opts ...LLMOption) *LLM {
	p := &LLM{registry: reg, toolLoopLimit: DefaultToolLoopLimit, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle implements handler.Func.
func (p *LLM) Handle(ctx context.Context, config map[string]any) (handler.Output, error) {
	ectx := execctx.FromContext(ctx)
	if ectx == nil {
		return handler.Output{}, fmt.Errorf("llm: no execution context attached")
	}

	resolved, err := variable.Resolve(config, ectx)
	if err != nil {
		return handler.Output{}, fmt.Errorf("llm: resolving config: %w", err)
	}
	cfg, ok := resolved.(map[string]any)
	if !ok {
		return handler.Output{}, newConfigError("config", "must be a mapping")
	}

	providerName, _ := cfg["provider"].(string)
	modelName, _ := cfg["model"].(string)
	m, err := p.registry.Providers.Create(providerName, cfg)
	if err != nil {
		return handler.Output{}, fmt.Errorf("llm: resolving provider: %w", err)
	}

	req, err := buildRequest(cfg, false)
	if err != nil {
		return handler.Output{}, err
	}

	toolDefs, toolImpls, err := bindTools(p.registry, cfg)
	if err != nil {
		return handler.Output{}, err
	}
	req.Tools = toolDefs

	totalUsage := &model.TokenUsage{}
	for step := 0; ; step++ {
		if step >= p.toolLoopLimit {
			return handler.Output{}, fmt.Errorf("llm: tool loop exceeded limit of %d steps", p.toolLoopLimit)
		}

		start := time.Now()
		resp, err := generateOnce(ctx, m, req)
		dur := time.Since(start)
		if err != nil {
			p.logger.LogModelCall(providerName, modelName, 0, dur, false, err)
			return handler.Output{}, fmt.Errorf("llm: generation failed: %w", err)
		}
		p.logger.LogModelCall(providerName, modelName, tokenCount(resp.Usage), dur, true, nil)
		addUsage(totalUsage, resp.Usage)

		calls := functionCalls(resp.Content)
		if len(calls) == 0 || len(toolImpls) == 0 {
			return handler.NewRecord(map[string]any{
				"text":  textOf(resp.Content),
				"usage": totalUsage,
			}), nil
		}

		req.Contents = append(req.Contents, resp.Content)
		responseContent := model.Content{Role: "tool"}
		for _, call := range calls {
			result, callErr := invokeTool(ctx, toolImpls, call)
			fr := model.FunctionResponse{ID: call.FunctionCall.ID, Name: call.FunctionCall.Name, Response: result}
			if callErr != nil {
				fr.Error = callErr.Error()
			}
			responseContent.Parts = append(responseContent.Parts, model.FunctionResponsePart{FunctionResponse: fr})
		}
		req.Contents = append(req.Contents, responseContent)
	}
}

func buildRequest(cfg map[string]any, stream bool) (model.Request, error) {
	req := model.Request{Stream: stream}

	if system, ok := cfg["system"].(string); ok {
		req.Instructions = system
	}

	rawMessages, ok := cfg["messages"]
	if !ok {
		return req, newConfigError("messages", "required")
	}
	contents, err := model.DecodeContents(rawMessages)
	if err != nil {
		return req, fmt.Errorf("llm: decoding messages: %w", err)
	}
	req.Contents = contents

	if temp, ok := cfg["temperature"].(float64); ok {
		req.Temperature = &temp
	}
	if maxTokens, ok := cfg["maxTokens"].(float64); ok {
		mt := int64(maxTokens)
		req.MaxTokens = &mt
	}
	return req, nil
}

func bindTools(reg *registry.Registry, cfg map[string]any) ([]model.ToolDefinition, map[string]tool.Tool, error) {
	rawTools, ok := cfg["tools"].([]any)
	if !ok || len(rawTools) == 0 {
		return nil, nil, nil
	}

	defs := make([]model.ToolDefinition, 0, len(rawTools))
	impls := make(map[string]tool.Tool, len(rawTools))
	for _, rt := range rawTools {
		name, ok := rt.(string)
		if !ok {
			return nil, nil, newConfigError("tools", "each entry must be a tool name string")
		}
		impl, err := reg.Tools.Get(name)
		if err != nil {
			return nil, nil, fmt.Errorf("llm: %w", err)
		}
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        impl.Name(),
				Description: impl.Description(),
				Parameters:  impl.Parameters(),
			},
		})
		impls[name] = impl
	}
	return defs, impls, nil
}

func invokeTool(ctx context.Context, impls map[string]tool.Tool, call model.FunctionCallPart) (any, error) {
	impl, ok := impls[call.FunctionCall.Name]
	if !ok {
		return nil, fmt.Errorf("tool %q not found", call.FunctionCall.Name)
	}
	var args map[string]any
	if call.FunctionCall.Arguments != "" {
		if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decoding tool arguments: %w", err)
		}
	}
	return impl.Call(ctx, args)
}

// generateOnce drains a Model's response/error channels and returns the
// final (non-partial) response. It is used by the llm primitive, which
// never streams to its caller; chat's turns use Chat.streamOnce instead.
func generateOnce(ctx context.Context, m model.Model, req model.Request) (model.Response, error) {
	out, errCh := m.Generate(ctx, req)
	var last model.Response
	for {
		select {
		case resp, ok := <-out:
			if !ok {
				return last, nil
			}
			last = resp
		case err, ok := <-errCh:
			if ok && err != nil {
				return model.Response{}, err
			}
		case <-ctx.Done():
			return model.Response{}, ctx.Err()
		}
	}
}

func functionCalls(content model.Content) []model.FunctionCallPart {
	var calls []model.FunctionCallPart
	for _, p := range content.Parts {
		if fc, ok := p.(model.FunctionCallPart); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func textOf(content model.Content) string {
	var out string
	for _, p := range content.Parts {
		if tp, ok := p.(model.TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

func tokenCount(u *model.TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.TotalTokens
}

func addUsage(total *model.TokenUsage, u *model.TokenUsage) {
	if u == nil {
		return
	}
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
