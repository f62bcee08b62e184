package store

import (
	"encoding/json"
	"fmt"

	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/schema"
)

// marshalValues converts runtime values to canonical JSON TEXT for storage.
func marshalValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	data, err := schema.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// marshalPayload converts a compiled payload to canonical JSON TEXT.
// Returns "" for a nil payload (non-valid outcomes).
func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "", nil
	}
	data, err := schema.MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// marshalViolations serializes violations as plain JSON. Violations are
// diagnostic text, not identity input, so canonical form is not required.
func marshalViolations(violations []engine.Violation) (string, error) {
	if len(violations) == 0 {
		return "", nil
	}
	data, err := json.Marshal(violations)
	if err != nil {
		return "", fmt.Errorf("marshal violations: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses canonical JSON TEXT back to a values map.
func unmarshalValues(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return map[string]string{}, nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return values, nil
}

// unmarshalPayload parses canonical JSON TEXT back to a payload map.
func unmarshalPayload(data string) (map[string]any, error) {
	if data == "" {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}

// unmarshalViolations parses the stored violation list.
func unmarshalViolations(data string) ([]engine.Violation, error) {
	if data == "" {
		return nil, nil
	}
	var violations []engine.Violation
	if err := json.Unmarshal([]byte(data), &violations); err != nil {
		return nil, fmt.Errorf("unmarshal violations: %w", err)
	}
	return violations, nil
}
