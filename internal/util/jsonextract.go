package util

import "strings"

// ExtractJSON pulls a JSON document out of freeform text: it first tries a
// fenced code block (``` or ```json), then falls back to the first balanced
// {...} or [...] span. Returns the candidate substring and whether one was
// found; the caller still has to json.Unmarshal it.
func ExtractJSON(text string) (string, bool) {
	if fenced, ok := extractFenced(text); ok {
		return fenced, true
	}
	return extractBalanced(text)
}

func extractFenced(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func extractBalanced(text string) (string, bool) {
	openers := map[byte]byte{'{': '}', '[': ']'}
	for i := 0; i < len(text); i++ {
		closer, ok := openers[text[i]]
		if !ok {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for j := i; j < len(text); j++ {
			c := text[j]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case text[i]:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return text[i : j+1], true
				}
			}
		}
	}
	return "", false
}
