package engine

import (
	"github.com/formwell/formwell/internal/schema"
)

// IsReady reports whether every dependency of the field has a non-empty
// effective (post-canonical-resolution) value. Readiness and condition
// visibility are independent gates; UI renderers consult both.
//
// An unknown field id is never ready.
func IsReady(s *schema.Schema, fieldID string, values Values) bool {
	return CheckReady(s, fieldID, values) == nil
}

// CheckReady is IsReady with diagnostics: it returns a
// *DependencyNotReadyError naming the unmet dependencies, or nil when the
// field is ready. The error is a soft readiness signal for renderers; the
// compiler escalates it to a violation only when the unready field's
// canonical value is required by the selected action.
func CheckReady(s *schema.Schema, fieldID string, values Values) error {
	f := s.Field(fieldID)
	if f == nil {
		return &DependencyNotReadyError{FieldID: fieldID, Missing: []string{fieldID}}
	}
	if len(f.DependsOn) == 0 {
		return nil
	}

	visible := VisibleFields(s, values)
	var missing []string
	for _, dep := range f.DependsOn {
		depField := s.Field(dep)
		if _, ok := resolveWithVisible(s, depField.Canonical(), values, visible); !ok {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyNotReadyError{FieldID: fieldID, Missing: missing}
	}
	return nil
}

// ReadyFields computes the set of ready fields in dependency order.
func ReadyFields(s *schema.Schema, values Values) map[string]struct{} {
	ready := make(map[string]struct{}, len(s.FieldOrder))
	for _, id := range s.FieldOrder {
		if IsReady(s, id, values) {
			ready[id] = struct{}{}
		}
	}
	return ready
}
