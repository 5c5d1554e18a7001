// Package oracle abstracts structured LLM calls behind a provider-neutral
// interface. Workers describe the JSON shape they want via the out
// parameter; providers are responsible for coaxing the model into
// returning parseable JSON and unmarshaling it.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request describes a single structured completion.
type Request struct {
	// System sets the worker persona and output contract.
	System string
	// Prompt is the user-turn content.
	Prompt string
	// Model names the provider model to use.
	Model string
	// Temperature controls sampling. Zero means provider default.
	Temperature float64
}

// Caller performs a structured completion and unmarshals the model's
// JSON response into out, which must be a pointer.
type Caller interface {
	StructuredCall(ctx context.Context, req Request, out any) error
}

// DecodeJSON unmarshals a model response into out, tolerating prose
// around the JSON payload. Models occasionally wrap output in markdown
// fences or add a leading sentence despite instructions.
func DecodeJSON(raw string, out any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	if extracted, ok := extractJSON(cleaned); ok {
		if err := json.Unmarshal([]byte(extracted), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("response is not valid JSON: %.200s", raw)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// extractJSON finds the outermost object or array in mixed text.
func extractJSON(s string) (string, bool) {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start := objStart
	open, close := byte('{'), byte('}')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
		open, close = '[', ']'
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
