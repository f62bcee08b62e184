package engine

import (
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// EvalCondition evaluates a visibility condition against current values.
//
// The match at each node is:
//   - scalar value: true iff the field's value equals it (trimmed compare)
//   - list value: true iff the field's value is a member; an empty list
//     never matches
//   - negate: inverts the node's match
//   - and: the chained condition must also hold
//
// A missing field evaluates as the empty string, so it matches only a
// condition that explicitly lists the empty string. There is no disjunction
// beyond list membership.
func EvalCondition(c *schema.Condition, values Values) bool {
	if c == nil {
		return true
	}

	// An empty candidate list is a degenerate always-false condition, even
	// under negate.
	if len(c.Value.Values) == 0 {
		return false
	}

	current := strings.TrimSpace(values[c.Field])

	matched := false
	for _, candidate := range c.Value.Values {
		if current == strings.TrimSpace(candidate) {
			matched = true
			break
		}
	}
	if c.Negate {
		matched = !matched
	}
	if !matched {
		return false
	}

	return EvalCondition(c.And, values)
}
