package uimessage

import (
	"encoding/json"

	"github.com/hupe1980/flowmesh/model"
)

// Converter adapts between the UI-message shape and the provider-native
// model-message shape. The chat primitive depends on this interface, not
// the concrete functions below, so callers can inject a different mapping
// (e.g. one that preserves richer tool-result metadata) without touching
// the primitive itself.
type Converter interface {
	ToModel(messages []Message) []model.Content
	FromModel(content model.Content) Message
}

// DefaultConverter implements the straightforward per-part mapping: text
// stays text, tool parts round-trip through FunctionCall/FunctionResponse,
// file/data parts collapse to their closest model.Part equivalent.
type DefaultConverter struct{}

// ToModel converts UI-messages to model-messages.
func (DefaultConverter) ToModel(messages []Message) []model.Content {
	out := make([]model.Content, 0, len(messages))
	for _, msg := range messages {
		out = append(out, ToModelContent(msg))
	}
	return out
}

// FromModel converts a single model-message to a UI-message.
func (DefaultConverter) FromModel(content model.Content) Message {
	return FromModelContent(content)
}

// ToModelContent converts one UI-message to the flat model.Content shape.
func ToModelContent(msg Message) model.Content {
	out := model.Content{Role: msg.Role}
	for _, p := range msg.Parts {
		switch part := p.(type) {
		case TextPart:
			out.Parts = append(out.Parts, model.TextPart{Text: part.Text})
		case ToolPart:
			if part.Result != nil || part.Error != "" {
				out.Parts = append(out.Parts, model.FunctionResponsePart{
					FunctionResponse: model.FunctionResponse{
						ID: part.ToolCallID, Name: part.ToolName, Response: part.Result, Error: part.Error,
					},
				})
				continue
			}
			args := ""
			if b, err := json.Marshal(part.Args); err == nil {
				args = string(b)
			}
			out.Parts = append(out.Parts, model.FunctionCallPart{
				FunctionCall: model.FunctionCall{ID: part.ToolCallID, Name: part.ToolName, Arguments: args},
			})
		case FilePart:
			out.Parts = append(out.Parts, model.FilePart{
				File: model.FilePartFile{Bytes: part.Data, URI: part.URL},
			})
		case DataPart:
			out.Parts = append(out.Parts, model.DataPart{Data: part.Data})
		}
	}
	return out
}

// FromModelContent converts one model.Content to the typed UI-message shape.
func FromModelContent(content model.Content) Message {
	out := Message{Role: content.Role}
	for _, p := range content.Parts {
		switch part := p.(type) {
		case model.TextPart:
			out.Parts = append(out.Parts, TextPart{Text: part.Text})
		case model.FunctionCallPart:
			var args map[string]any
			_ = json.Unmarshal([]byte(part.FunctionCall.Arguments), &args)
			out.Parts = append(out.Parts, ToolPart{
				ToolCallID: part.FunctionCall.ID, ToolName: part.FunctionCall.Name, Args: args,
			})
		case model.FunctionResponsePart:
			out.Parts = append(out.Parts, ToolPart{
				ToolCallID: part.FunctionResponse.ID, ToolName: part.FunctionResponse.Name,
				Result: part.FunctionResponse.Response, Error: part.FunctionResponse.Error,
			})
		case model.FilePart:
			mimeType := ""
			if part.File.MimeType != nil {
				mimeType = *part.File.MimeType
			}
			out.Parts = append(out.Parts, FilePart{MediaType: mimeType, URL: part.File.URI, Data: part.File.Bytes})
		case model.DataPart:
			out.Parts = append(out.Parts, DataPart{Data: part.Data})
		}
	}
	return out
}
