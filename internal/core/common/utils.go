package common

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const snippetLimit = 256

// DecodeJSON unmarshals a remote response body into a type T.
// An empty or whitespace-only body is reported as malformed.
func DecodeJSON[T any](body []byte) (T, error) {
	var zero T

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return zero, fmt.Errorf("empty response body")
	}

	var result T
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, Snippet(trimmed))
	}

	return result, nil
}

// Snippet shortens a body for inclusion in errors and logs.
func Snippet(body []byte) string {
	if len(body) <= snippetLimit {
		return string(body)
	}
	return string(body[:snippetLimit]) + "..."
}
