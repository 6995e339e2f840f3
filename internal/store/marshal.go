package store

import (
	"encoding/json"
	"fmt"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// marshalDetails converts error details to canonical JSON TEXT for storage.
func marshalDetails(details map[string]string) (string, error) {
	m := make(map[string]any, len(details))
	for k, v := range details {
		m[k] = v
	}
	data, err := expr.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(data), nil
}

// unmarshalDetails parses JSON TEXT back into error details.
// Returns nil for an empty object.
func unmarshalDetails(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var details map[string]string
	if err := json.Unmarshal([]byte(data), &details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return details, nil
}
