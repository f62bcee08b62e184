// Package engine implements request-time form resolution: condition
// evaluation, dependency readiness, canonical value resolution, operation
// selection, and parameter compilation.
//
// Every function here is pure with respect to its inputs: the engine never
// mutates the runtime values map and holds no state between invocations, so
// arbitrarily many compilations may run concurrently against one Schema.
package engine

import (
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// Values holds the raw runtime input, keyed by field id. Supplied fresh per
// request; the engine treats it as read-only.
type Values map[string]string

// isEmpty reports whether a raw value is empty after trimming.
func isEmpty(v string) bool {
	return strings.TrimSpace(v) == ""
}

// VisibleFields computes the set of fields whose visibility condition holds
// under the given values. Fields without a condition are always visible.
func VisibleFields(s *schema.Schema, values Values) map[string]struct{} {
	visible := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Condition == nil || EvalCondition(f.Condition, values) {
			visible[f.ID] = struct{}{}
		}
	}
	return visible
}

// ActiveFields computes the fields that are both visible and ready. Only
// active fields contribute values downstream; inputs left behind on hidden
// conditional branches never leak into a payload.
func ActiveFields(s *schema.Schema, values Values) map[string]struct{} {
	visible := VisibleFields(s, values)
	active := make(map[string]struct{}, len(visible))
	for id := range visible {
		if IsReady(s, id, values) {
			active[id] = struct{}{}
		}
	}
	return active
}
