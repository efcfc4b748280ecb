// Package jsonutil decodes JSON out of LLM responses, which routinely arrive
// wrapped in markdown fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject returns the JSON object embedded in text. It strips markdown
// code fences first and, failing a clean parse, falls back to the span between
// the first '{' and the last '}'.
func ExtractObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if json.Valid([]byte(s)) {
		return s, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in model output")
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("model output contains malformed JSON")
	}
	return candidate, nil
}

// UnmarshalObject extracts the JSON object from text and decodes it into v.
func UnmarshalObject(text string, v interface{}) error {
	s, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("failed to unmarshal model output: %w", err)
	}
	return nil
}
