package providers

import (
	"encoding/json"
	"strings"
)

// ExtractJSONBlock strips markdown code fences from a model reply. Lookup
// order: a ```json fence, then any ``` fence, then the raw trimmed text.
func ExtractJSONBlock(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(text[start:], "```"); end >= 0 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(text[start:], "```"); end >= 0 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	return strings.TrimSpace(text)
}

// ParseStructured turns a model reply into a JSON object, tolerating fences.
// A reply that is not JSON at all yields a MalformedOutputError carrying the
// original text.
func ParseStructured(text string) (map[string]any, error) {
	payload := ExtractJSONBlock(text)

	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, &MalformedOutputError{RawText: text, Err: err}
	}
	return data, nil
}
