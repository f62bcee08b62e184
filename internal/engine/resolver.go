package engine

import (
	"github.com/formwell/formwell/internal/schema"
)

// ResolveCanonical picks the effective value for one canonical parameter.
//
// Candidates are walked in the schema's declared precedence order (basic or
// selector fields before advanced or manual ones); the first candidate whose
// value is non-empty after trimming wins. Hidden fields never contribute:
// whatever a user typed on a conditional branch that is no longer visible is
// ignored, so behavior is identical regardless of which UI modality supplied
// the value.
//
// Returns ("", false) when no visible candidate yields a non-empty value.
// Resolution depends only on schema-declared precedence, never on map
// iteration order, so repeated calls with identical values are identical.
func ResolveCanonical(s *schema.Schema, canonicalID string, values Values) (string, bool) {
	visible := VisibleFields(s, values)
	return resolveWithVisible(s, canonicalID, values, visible)
}

func resolveWithVisible(s *schema.Schema, canonicalID string, values Values, visible map[string]struct{}) (string, bool) {
	for _, fieldID := range s.Groups[canonicalID] {
		if _, ok := visible[fieldID]; !ok {
			continue
		}
		if v, ok := values[fieldID]; ok && !isEmpty(v) {
			return v, true
		}
	}
	return "", false
}

// EffectiveValues resolves every canonical parameter in one pass, computing
// field visibility once. The result maps canonical param id to the raw
// effective value; parameters with no non-empty candidate are absent.
func EffectiveValues(s *schema.Schema, values Values) map[string]string {
	visible := VisibleFields(s, values)
	effective := make(map[string]string, len(s.Groups))
	for canonicalID := range s.Groups {
		if v, ok := resolveWithVisible(s, canonicalID, values, visible); ok {
			effective[canonicalID] = v
		}
	}
	return effective
}
