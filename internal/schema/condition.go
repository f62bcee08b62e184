package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Condition is a boolean predicate over current input values gating a
// field's visibility. It forms a conjunctive chain via And; list-valued
// Value substitutes for OR (membership). There is no other disjunction.
type Condition struct {
	// Field is the id of the field whose value is tested.
	Field string `json:"field" yaml:"field"`

	// Value is the scalar or list of scalars to match against.
	Value ConditionValue `json:"value" yaml:"value"`

	// Negate inverts the match.
	Negate bool `json:"negate,omitempty" yaml:"negate,omitempty"`

	// And chains a further condition that must also hold.
	And *Condition `json:"and,omitempty" yaml:"and,omitempty"`
}

// ConditionValue holds the match target of a Condition. Schema documents may
// write it as a single scalar or as a list of scalars; both deserialize
// losslessly into this type. Scalars are kept as their literal string form
// since all matching is trimmed string comparison.
type ConditionValue struct {
	Values []string
	List   bool
}

// Scalar builds a single-scalar condition value.
func Scalar(v string) ConditionValue {
	return ConditionValue{Values: []string{v}}
}

// OneOf builds a list-valued condition value (membership match).
func OneOf(vs ...string) ConditionValue {
	return ConditionValue{Values: vs, List: true}
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (v *ConditionValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v.Values = []string{node.Value}
		v.List = false
		return nil
	case yaml.SequenceNode:
		v.Values = make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("condition value: list items must be scalars, got %v", item.Kind)
			}
			v.Values = append(v.Values, item.Value)
		}
		v.List = true
		return nil
	default:
		return fmt.Errorf("condition value: must be a scalar or a list of scalars")
	}
}

// UnmarshalJSON accepts either a scalar or an array of scalars. Numbers are
// kept in their literal form via json.Number to avoid float formatting drift.
func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case []any:
		v.Values = make([]string, 0, len(val))
		for i, item := range val {
			s, err := scalarString(item)
			if err != nil {
				return fmt.Errorf("condition value[%d]: %w", i, err)
			}
			v.Values = append(v.Values, s)
		}
		v.List = true
		return nil
	default:
		s, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("condition value: %w", err)
		}
		v.Values = []string{s}
		v.List = false
		return nil
	}
}

// MarshalJSON writes back a scalar or array matching the original shape.
func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.List {
		return json.Marshal(v.Values)
	}
	if len(v.Values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(v.Values[0])
}

// MarshalYAML mirrors MarshalJSON for YAML round-trips.
func (v ConditionValue) MarshalYAML() (any, error) {
	if v.List {
		return v.Values, nil
	}
	if len(v.Values) == 0 {
		return "", nil
	}
	return v.Values[0], nil
}

// scalarString renders a decoded JSON scalar to its literal string form.
func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	case nil:
		return "", fmt.Errorf("null is not a valid condition scalar")
	default:
		return "", fmt.Errorf("unsupported scalar type %T", v)
	}
}

// Fields returns every field id referenced along the conjunctive chain.
func (c *Condition) Fields() []string {
	var ids []string
	for cur := c; cur != nil; cur = cur.And {
		ids = append(ids, cur.Field)
	}
	return ids
}
