package engine

import (
	"encoding/json"
	"strings"
)

var emptyObject = json.RawMessage("{}")

// RepairArguments normalizes raw tool arguments from the model. Empty input
// becomes {}. Invalid JSON is retried with control characters stripped
// (tab, newline and carriage return survive); if that still fails, or the
// value is not an object, the result is {}.
func RepairArguments(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return emptyObject
	}
	if isObject(trimmed) {
		return json.RawMessage(trimmed)
	}
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, trimmed)
	if isObject(cleaned) {
		return json.RawMessage(cleaned)
	}
	return emptyObject
}

func isObject(s string) bool {
	var v map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &v) == nil && v != nil
}
