package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/flowmesh/execctx"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/model"
	"github.com/hupe1980/flowmesh/registry"
	"github.com/hupe1980/flowmesh/tool"
	"github.com/hupe1980/flowmesh/trace"
	"github.com/hupe1980/flowmesh/uimessage"
	"github.com/hupe1980/flowmesh/variable"
)

// Chat implements the streaming generation primitive, registered under the
// step type "chat". Config mirrors LLM's with additional onFinish/onError
// callback names. The defining difference from LLM is the message shape:
// chat resolves messages in the UI-message form (typed parts) and converts
// to the model-message form via a Converter before generating.
type Chat struct {
	registry      *registry.Registry
	converter     uimessage.Converter
	toolLoopLimit int
	logger        logging.Logger
}

// ChatOption configures a Chat primitive.
type ChatOption func(*Chat)

// WithConverter overrides the default UI-message<->model-message Converter.
func WithConverter(c uimessage.Converter) ChatOption {
	return func(p *Chat) { p.converter = c }
}

// WithChatLogger overrides the primitive's logger (default logging.NoOpLogger).
func WithChatLogger(logger logging.Logger) ChatOption {
	return func(p *Chat) { p.logger = logger }
}

// NewChat constructs the chat primitive bound to reg.
func NewChat(reg *registry.Registry, opts ...ChatOption) *Chat {
	p := &Chat{
		registry:      reg,
		converter:     uimessage.DefaultConverter{},
		toolLoopLimit: DefaultToolLoopLimit,
		logger:        logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle implements handler.Func. It always returns a streaming Output.
func (p *Chat) Handle(ctx context.Context, config map[string]any) (handler.Output, error) {
	ectx := execctx.FromContext(ctx)
	if ectx == nil {
		return handler.Output{}, fmt.Errorf("chat: no execution context attached")
	}

	resolved, err := variable.Resolve(config, ectx)
	if err != nil {
		return handler.Output{}, fmt.Errorf("chat: resolving config: %w", err)
	}
	cfg, ok := resolved.(map[string]any)
	if !ok {
		return handler.Output{}, newConfigError("config", "must be a mapping")
	}

	providerName, _ := cfg["provider"].(string)
	modelName, _ := cfg["model"].(string)
	m, err := p.registry.Providers.Create(providerName, cfg)
	if err != nil {
		return handler.Output{}, fmt.Errorf("chat: resolving provider: %w", err)
	}

	rawMessages, ok := cfg["messages"]
	if !ok {
		return handler.Output{}, newConfigError("messages", "required")
	}
	uiMessages, err := uimessage.DecodeMessages(rawMessages)
	if err != nil {
		return handler.Output{}, fmt.Errorf("chat: decoding messages: %w", err)
	}

	req := model.Request{Stream: true, Contents: p.converter.ToModel(uiMessages)}
	if system, ok := cfg["system"].(string); ok {
		req.Instructions = system
	}
	if temp, ok := cfg["temperature"].(float64); ok {
		req.Temperature = &temp
	}
	if maxTokens, ok := cfg["maxTokens"].(float64); ok {
		mt := int64(maxTokens)
		req.MaxTokens = &mt
	}

	toolDefs, toolImpls, err := bindTools(p.registry, cfg)
	if err != nil {
		return handler.Output{}, err
	}
	req.Tools = toolDefs

	onFinish, _ := cfg["onFinish"].(string)
	onError, _ := cfg["onError"].(string)

	traceSnapshot := ectx.Trace()

	chunks := make(chan handler.StreamChunk, 32)
	go p.run(ctx, m, providerName, modelName, req, toolImpls, traceSnapshot, onFinish, onError, chunks)

	return handler.NewStream(chunks), nil
}

func (p *Chat) run(
	ctx context.Context,
	m model.Model,
	providerName, modelName string,
	req model.Request,
	toolImpls map[string]tool.Tool,
	traceSnapshot []trace.Event,
	onFinish, onError string,
	chunks chan<- handler.StreamChunk,
) {
	defer close(chunks)

	if len(traceSnapshot) > 0 {
		chunks <- handler.StreamChunk{
			Data: map[string]any{
				"type":      "data-trace",
				"id":        uuid.NewString(),
				"data":      map[string]any{"events": traceEventsToMaps(traceSnapshot)},
				"transient": true,
			},
			Transient: true,
		}
	}

	var fullText string
	totalUsage := &model.TokenUsage{}

	for step := 0; ; step++ {
		if step >= p.toolLoopLimit {
			err := fmt.Errorf("chat: tool loop exceeded limit of %d steps", p.toolLoopLimit)
			p.emitError(chunks, onError, err)
			return
		}

		start := time.Now()
		resp, err := p.streamOnce(ctx, m, req, chunks)
		dur := time.Since(start)
		if err != nil {
			p.logger.LogModelCall(providerName, modelName, 0, dur, false, err)
			p.emitError(chunks, onError, err)
			return
		}
		p.logger.LogModelCall(providerName, modelName, tokenCount(resp.Usage), dur, true, nil)
		addUsage(totalUsage, resp.Usage)
		fullText += textOf(resp.Content)

		calls := functionCalls(resp.Content)
		if len(calls) == 0 || len(toolImpls) == 0 {
			final := map[string]any{"text": fullText, "usage": totalUsage}
			chunks <- handler.StreamChunk{Finished: true, FinalRecord: final}
			p.invokeCallback(onFinish, map[string]any{
				"text": fullText, "usage": totalUsage, "totalUsage": totalUsage, "steps": step + 1,
			})
			return
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

// streamOnce forwards partial text deltas as they arrive and returns the
// final accumulated response for this turn.
func (p *Chat) streamOnce(ctx context.Context, m model.Model, req model.Request, chunks chan<- handler.StreamChunk) (model.Response, error) {
	out, errCh := m.Generate(ctx, req)
	var last model.Response
	for {
		select {
		case resp, ok := <-out:
			if !ok {
				return last, nil
			}
			if resp.Partial {
				if text := textOf(resp.Content); text != "" {
					chunks <- handler.StreamChunk{TextDelta: text}
				}
				continue
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

func (p *Chat) emitError(chunks chan<- handler.StreamChunk, onError string, err error) {
	chunks <- handler.StreamChunk{Err: err}
	p.invokeCallback(onError, map[string]any{"error": err.Error()})
}

func (p *Chat) invokeCallback(name string, payload map[string]any) {
	if name == "" {
		return
	}
	cb, ok := p.registry.Callbacks.Lookup(name)
	if !ok {
		p.logger.Warn("chat: callback not registered, ignoring", "callback", name)
		return
	}
	cb(payload)
}

func traceEventsToMaps(events []trace.Event) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
