// Package anthropic provides a model wrapper for the Anthropic Claude API,
// bound into the Provider Registry under the name "anthropic".
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/flowmesh/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// NewFactory returns a model.Factory bindable into the Provider Registry
// under a provider name (e.g. "anthropic").
func NewFactory() model.Factory {
	return func(config map[string]any) (model.Model, error) {
		return NewModel(func(o *Options) {
			if v, ok := config["model"].(string); ok && v != "" {
				o.Model = anthropic.Model(v)
			}
			if v, ok := config["temperature"].(float64); ok {
				o.Temperature = v
			}
		}), nil
	}
}

// Generate implements unified streaming / non-streaming generation.
// It adapts Anthropic Messages API (with function/tool calling) into model.Response events.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		messages := m.buildMessages(req.Contents)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    messages,
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}
		if systemBlocks := m.extractSystemMessage(req.Contents); len(systemBlocks) > 0 {
			params.System = append(params.System, systemBlocks...)
		}
		if len(req.Tools) > 0 {
			params.Tools = m.buildTools(req.Tools)
		}

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// handleStreaming consumes the Anthropic SSE event stream, forwarding text
// deltas as partial responses and emitting a final response once the
// accumulated message is complete. It follows the SDK's Accumulate pattern:
// each event is folded into a running anthropic.Message so the final content
// blocks (text + tool_use) and stop reason are available once the stream ends.
func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	acc := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic stream accumulate error: %w", err)
			return
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				out <- model.Response{
					Partial: true,
					Content: model.Content{Role: "assistant", Parts: []model.Part{model.TextPart{Text: delta.Text}}},
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}

	out <- model.Response{
		Partial:      false,
		Content:      model.Content{Role: "assistant", Parts: contentPartsFromBlocks(acc.Content)},
		FinishReason: finishReason(acc.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(acc.Usage.InputTokens),
			CompletionTokens: int(acc.Usage.OutputTokens),
			TotalTokens:      int(acc.Usage.InputTokens + acc.Usage.OutputTokens),
		},
	}
}

// handleNonStreaming issues a single blocking Messages.New call.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("anthropic api error: %w", err)
		return
	}

	out <- model.Response{
		Partial:      false,
		Content:      model.Content{Role: "assistant", Parts: contentPartsFromBlocks(resp.Content)},
		FinishReason: finishReason(resp.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

func finishReason(stop anthropic.StopReason) string {
	if stop == "" {
		return "stop"
	}
	return string(stop)
}

func contentPartsFromBlocks(blocks []anthropic.ContentBlockUnion) []model.Part {
	var parts []model.Part
	for _, block := range blocks {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				parts = append(parts, model.TextPart{Text: textBlock.Text})
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}
			parts = append(parts, model.FunctionCallPart{
				FunctionCall: model.FunctionCall{ID: toolBlock.ID, Name: toolBlock.Name, Arguments: args},
			})
		}
	}
	return parts
}

// buildMessages converts FlowMesh contents to Anthropic message format.
func (m *Model) buildMessages(contents []model.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	toolResponses := make(map[string]string)
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			if fr, ok := p.(model.FunctionResponsePart); ok && fr.FunctionResponse.ID != "" {
				if respStr, ok := fr.FunctionResponse.Response.(string); ok {
					toolResponses[fr.FunctionResponse.ID] = respStr
				} else {
					toolResponses[fr.FunctionResponse.ID] = fmt.Sprintf("%v", fr.FunctionResponse.Response)
				}
			}
		}
	}

	for _, c := range contents {
		if c.Role == "system" || c.Role == "tool" {
			continue
		}
		switch c.Role {
		case "assistant":
			if content := m.buildAssistantContent(c.Parts, toolResponses); len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		default:
			if content := m.buildUserContent(c.Parts); len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}

	return messages
}

// extractSystemMessage extracts system message blocks.
func (m *Model) extractSystemMessage(contents []model.Content) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam
	for _, c := range contents {
		if c.Role != "system" {
			continue
		}
		for _, p := range c.Parts {
			if tp, ok := p.(model.TextPart); ok && tp.Text != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: tp.Text})
			}
		}
	}
	return systemBlocks
}

// buildUserContent builds content blocks for user messages.
func (m *Model) buildUserContent(parts []model.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		if tp, ok := p.(model.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}
	return content
}

// buildAssistantContent builds content blocks for assistant messages, interleaving tool results.
func (m *Model) buildAssistantContent(
	parts []model.Part,
	toolResponses map[string]string,
) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	var toolCallIDs []string

	for _, p := range parts {
		switch part := p.(type) {
		case model.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case model.FunctionCallPart:
			var input interface{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments
				}
			}
			content = append(content, anthropic.NewToolUseBlock(part.FunctionCall.ID, input, part.FunctionCall.Name))
			toolCallIDs = append(toolCallIDs, part.FunctionCall.ID)
		}
	}

	for _, id := range toolCallIDs {
		if resp, ok := toolResponses[id]; ok {
			content = append(content, anthropic.NewToolResultBlock(id, resp, false))
			delete(toolResponses, id)
		}
	}

	return content
}

// buildTools converts FlowMesh tool definitions to Anthropic tool format.
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}

		if params := tool.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				switch r := required.(type) {
				case []string:
					inputSchema.Required = r
				case []interface{}:
					var reqStrings []string
					for _, v := range r {
						if s, ok := v.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}

	return anthropicTools
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic", SupportsTools: true}
}
