package model

import "fmt"

// DecodeContents converts a resolved config value (a []any of map[string]any,
// as decoded from YAML/JSON) into the native []Content shape the llm
// primitive passes straight through to a provider with no format
// conversion. Each entry accepts either a flat {role, content: <string>}
// shorthand or an explicit {role, parts: [...]} form.
func DecodeContents(v any) ([]Content, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("messages must be an array, got %T", v)
	}
	out := make([]Content, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("messages[%d] must be an object, got %T", i, item)
		}
		c, err := decodeContent(m)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeContent(m map[string]any) (Content, error) {
	role, _ := m["role"].(string)
	c := Content{Role: role}

	if raw, ok := m["parts"]; ok {
		parts, ok := raw.([]any)
		if !ok {
			return c, fmt.Errorf("parts must be an array, got %T", raw)
		}
		for i, p := range parts {
			pm, ok := p.(map[string]any)
			if !ok {
				return c, fmt.Errorf("parts[%d] must be an object, got %T", i, p)
			}
			part, err := decodePart(pm)
			if err != nil {
				return c, fmt.Errorf("parts[%d]: %w", i, err)
			}
			c.Parts = append(c.Parts, part)
		}
		return c, nil
	}

	if text, ok := m["content"].(string); ok {
		c.Parts = []Part{TextPart{Text: text}}
		return c, nil
	}

	return c, nil
}

func decodePart(m map[string]any) (Part, error) {
	kind, _ := m["type"].(string)
	switch kind {
	case "", "text":
		text, _ := m["text"].(string)
		return TextPart{Text: text}, nil
	case "data":
		data, _ := m["data"].(map[string]any)
		return DataPart{Data: data}, nil
	default:
		return nil, fmt.Errorf("unsupported part type %q", kind)
	}
}
