// Package sanitize normalizes raw language-model output into parseable
// JSON. Models frequently wrap structured output in markdown code fences
// despite being told not to; this is a defensive layer, not a guarantee —
// no brace matching or partial recovery is attempted beyond fence
// stripping.
package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError is returned when a completion could not be
// parsed as JSON after sanitization.
type MalformedResponseError struct {
	cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed completion response: %v", e.cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.cause }

// Sanitize trims the raw completion, strips markdown code fences when
// the text starts with one, and parses the remainder as JSON. The only
// error it returns is *MalformedResponseError.
func Sanitize(raw string) (json.RawMessage, error) {
	cleaned := strip(raw)

	var v json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, &MalformedResponseError{cause: err}
	}
	return v, nil
}

// Decode sanitizes raw and unmarshals the result into v.
func Decode(raw string, v any) error {
	cleaned, err := Sanitize(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(cleaned, v); err != nil {
		return &MalformedResponseError{cause: err}
	}
	return nil
}

// strip removes every fence marker from s when it begins with one, with
// or without a language tag. Text without a leading fence passes through
// unchanged.
func strip(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if strings.HasPrefix(s, "```json") {
		s = strings.ReplaceAll(s, "```json", "")
	}
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
