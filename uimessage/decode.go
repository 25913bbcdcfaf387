package uimessage

import "fmt"

// DecodeMessages converts a resolved config value (a []any of
// map[string]any, as decoded from YAML/JSON) into typed Messages. This is
// the UI-message shape the chat primitive accepts before converting to
// model.Content — the definitional difference from the llm primitive,
// which passes messages through unconverted.
func DecodeMessages(v any) ([]Message, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("messages must be an array, got %T", v)
	}
	out := make([]Message, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("messages[%d] must be an object, got %T", i, item)
		}
		msg, err := decodeMessage(m)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func decodeMessage(m map[string]any) (Message, error) {
	role, _ := m["role"].(string)
	msg := Message{Role: role}

	if raw, ok := m["parts"]; ok {
		parts, ok := raw.([]any)
		if !ok {
			return msg, fmt.Errorf("parts must be an array, got %T", raw)
		}
		for i, p := range parts {
			pm, ok := p.(map[string]any)
			if !ok {
				return msg, fmt.Errorf("parts[%d] must be an object, got %T", i, p)
			}
			part, err := decodePart(pm)
			if err != nil {
				return msg, fmt.Errorf("parts[%d]: %w", i, err)
			}
			msg.Parts = append(msg.Parts, part)
		}
		return msg, nil
	}

	if text, ok := m["content"].(string); ok {
		msg.Parts = []Part{TextPart{Text: text}}
		return msg, nil
	}

	return msg, nil
}

func decodePart(m map[string]any) (Part, error) {
	kind, _ := m["type"].(string)
	switch kind {
	case "", "text":
		text, _ := m["text"].(string)
		return TextPart{Text: text}, nil
	case "file":
		mediaType, _ := m["mediaType"].(string)
		url, _ := m["url"].(string)
		data, _ := m["data"].(string)
		return FilePart{MediaType: mediaType, URL: url, Data: data}, nil
	case "tool":
		toolCallID, _ := m["toolCallId"].(string)
		toolName, _ := m["toolName"].(string)
		args, _ := m["args"].(map[string]any)
		errStr, _ := m["error"].(string)
		return ToolPart{ToolCallID: toolCallID, ToolName: toolName, Args: args, Result: m["result"], Error: errStr}, nil
	default:
		data, _ := m["data"].(map[string]any)
		return DataPart{DataType: kind, Data: data}, nil
	}
}
