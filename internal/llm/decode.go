// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeJSON unmarshals a JSON object or array out of model output into v.
// Models wrap payloads in markdown fences or surrounding prose; the decoder
// locates the outermost valid JSON value before strict unmarshaling.
func DecodeJSON(text string, v any) error {
	payload := extractJSON(text)
	if payload == "" {
		return fmt.Errorf("no JSON payload in model output")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}

// extractJSON returns the first valid JSON object or array in text, or "".
func extractJSON(text string) string {
	text = stripFences(text)

	trimmed := strings.TrimSpace(text)
	if gjson.Valid(trimmed) {
		return trimmed
	}

	// Scan for the first balanced object or array that validates.
	for i := 0; i < len(trimmed); i++ {
		open := trimmed[i]
		if open != '{' && open != '[' {
			continue
		}
		if end := matchBalanced(trimmed, i); end > i {
			candidate := trimmed[i : end+1]
			if gjson.Valid(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}
	// Drop the opening fence line (``` or ```json) and a trailing fence.
	lines = lines[1:]
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// matchBalanced returns the index of the bracket closing the one at start,
// skipping string literals, or -1.
func matchBalanced(s string, start int) int {
	open := s[start]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return -1
	}

	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
