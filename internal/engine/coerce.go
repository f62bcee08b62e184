package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// coerceValue converts a non-empty raw string into the typed value for its
// declared kind. Callers have already filtered empty values, so coercion
// never manufactures zero values.
func coerceValue(kind schema.Kind, raw string) (any, error) {
	switch kind {
	case schema.KindString, "":
		return raw, nil
	case schema.KindNumber:
		return coerceNumber(raw)
	case schema.KindBoolean:
		return coerceBool(raw)
	case schema.KindArray:
		return coerceArray(raw), nil
	case schema.KindJSON:
		return coerceJSON(raw)
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
}

// coerceNumber parses a numeric string. Integral values become int64 so
// "25" compiles to 25, not 25.0.
func coerceNumber(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", trimmed)
	}
	return f, nil
}

// coerceBool accepts the literal strings "true" and "false" (any case).
func coerceBool(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return nil, fmt.Errorf("not a boolean: %q", strings.TrimSpace(raw))
	}
}

// coerceArray splits a comma-separated string into trimmed, non-empty
// elements: "a, b ,,c" becomes ["a","b","c"].
func coerceArray(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// coerceJSON parses a JSON document. Numbers decode via json.Number and are
// narrowed to int64 where integral, keeping payloads canonical-JSON safe.
func coerceJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json: %v", err)
	}
	return normalizeJSON(v), nil
}

func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i, elem := range val {
			val[i] = normalizeJSON(elem)
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeJSON(elem)
		}
		return val
	default:
		return v
	}
}
