package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONFencedWithLanguageTag(t *testing.T) {
	text := "Here you go:\n```json\n{\"a\": 1}\n```\nDone."
	got, ok := ExtractJSON(text)
	assert.True(t, ok)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractJSONFencedWithoutLanguageTag(t *testing.T) {
	text := "```\n{\"a\": 1}\n```"
	got, ok := ExtractJSON(text)
	assert.True(t, ok)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractJSONBalancedObject(t *testing.T) {
	text := `The result is {"a": 1, "b": [1,2,3]} and that's final.`
	got, ok := ExtractJSON(text)
	assert.True(t, ok)
	assert.Equal(t, `{"a": 1, "b": [1,2,3]}`, got)
}

func TestExtractJSONBalancedArray(t *testing.T) {
	text := `[1, 2, "three"] trailing text`
	got, ok := ExtractJSON(text)
	assert.True(t, ok)
	assert.Equal(t, `[1, 2, "three"]`, got)
}

func TestExtractJSONIgnoresBracesInsideStrings(t *testing.T) {
	text := `{"note": "use { and } carefully"}`
	got, ok := ExtractJSON(text)
	assert.True(t, ok)
	assert.Equal(t, text, got)
}

func TestExtractJSONNoCandidate(t *testing.T) {
	_, ok := ExtractJSON("just plain text")
	assert.False(t, ok)
}
