package engine

import (
	"fmt"
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// Payload is a compiled, typed action payload. It contains exactly the keys
// the selected action declares; empty optional parameters are omitted, never
// zero-coerced.
type Payload map[string]any

// Result pairs the selected action with its compiled payload.
type Result struct {
	ActionID string  `json:"actionId"`
	Payload  Payload `json:"payload"`
}

// Compile validates and reshapes raw runtime values into the selected
// action's typed payload.
//
// The pass is: resolve effective canonical values from visible fields,
// select the action from the discriminator, apply the action's declared
// defaults, check every requirement rule, then coerce kinds. Violations
// accumulate across the whole pass; if any exist the result is a single
// aggregated *ValidationError and no payload. A payload and an error are
// never returned together.
func Compile(s *schema.Schema, values Values) (*Result, error) {
	visible := VisibleFields(s, values)
	effective := make(map[string]string, len(s.Groups))
	for canonicalID := range s.Groups {
		if v, ok := resolveWithVisible(s, canonicalID, values, visible); ok {
			effective[canonicalID] = v
		}
	}

	actionID, err := selectFromValues(s, effective)
	if err != nil {
		return nil, err
	}
	rule := s.Action(actionID)
	if rule == nil {
		// Unreachable for a compiler-built schema; mapping targets are
		// checked at load time.
		return nil, &UnknownOperationError{Value: actionID, Discriminator: s.Operation.Discriminator}
	}

	// Schema-declared, per-action defaulting. Applied before requirement
	// checks so a defaulted parameter satisfies its own requirement.
	for param, def := range rule.Defaults {
		if isEmpty(effective[param]) {
			effective[param] = def
		}
	}

	var violations []Violation
	violations = append(violations, checkRequired(s, rule, effective, values, visible)...)
	violations = append(violations, checkRequiresAny(rule, effective)...)

	payload := make(Payload, len(rule.Params))
	for _, param := range rule.Params {
		raw, ok := effective[param]
		if !ok || isEmpty(raw) {
			// Omitted entirely: '' never becomes 0, false, or [""].
			continue
		}
		coerced, err := coerceValue(paramKind(s, param), raw)
		if err != nil {
			violations = append(violations, Violation{
				Param:   param,
				Message: err.Error(),
				Code:    CodeInvalidValue,
			})
			continue
		}
		payload[param] = coerced
	}

	if len(violations) > 0 {
		return nil, &ValidationError{ActionID: actionID, Violations: violations}
	}
	return &Result{ActionID: actionID, Payload: payload}, nil
}

// selectFromValues reads the discriminator's effective value and selects the
// action.
func selectFromValues(s *schema.Schema, effective map[string]string) (string, error) {
	discField := s.Field(s.Operation.Discriminator)
	discValue := ""
	if discField != nil {
		discValue = effective[discField.Canonical()]
	}
	return SelectAction(s.Operation, discValue)
}

// checkRequired reports a violation for every required canonical parameter
// that resolved empty. A parameter supplied only by visible-but-unready
// fields is reported as dependency-not-ready (V103) rather than missing
// (V101): the renderer can surface "fill in X first" instead of a bare
// missing-value complaint.
func checkRequired(s *schema.Schema, rule *schema.ActionRule, effective map[string]string, values Values, visible map[string]struct{}) []Violation {
	required := make([]string, 0, len(rule.Requires))
	seen := make(map[string]bool, len(rule.Requires))
	for _, p := range rule.Requires {
		if !seen[p] {
			required = append(required, p)
			seen[p] = true
		}
	}

	// Field-level required flags harden into requirements for parameters
	// the action actually consumes.
	inParams := make(map[string]bool, len(rule.Params))
	for _, p := range rule.Params {
		inParams[p] = true
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if !f.Required || seen[f.Canonical()] || !inParams[f.Canonical()] {
			continue
		}
		if _, ok := visible[f.ID]; !ok {
			continue
		}
		required = append(required, f.Canonical())
		seen[f.Canonical()] = true
	}

	var violations []Violation
	for _, param := range required {
		if !isEmpty(effective[param]) {
			continue
		}
		if unready := unreadySupplier(s, param, values, visible); unready != "" {
			violations = append(violations, Violation{
				Param:   param,
				Message: fmt.Sprintf("required parameter %q waits on field %q whose dependencies are unmet", param, unready),
				Code:    CodeDependencyNotReady,
			})
			continue
		}
		violations = append(violations, Violation{
			Param:   param,
			Message: fmt.Sprintf("required parameter %q is missing", param),
			Code:    CodeMissingRequired,
		})
	}
	return violations
}

// checkRequiresAny reports a violation for every composite rule with no
// non-empty alternative.
func checkRequiresAny(rule *schema.ActionRule, effective map[string]string) []Violation {
	var violations []Violation
	for _, alt := range rule.RequiresAny {
		satisfied := false
		for _, param := range alt {
			if !isEmpty(effective[param]) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			violations = append(violations, Violation{
				Param:   strings.Join(alt, "|"),
				Message: fmt.Sprintf("at least one of %s must be non-empty", strings.Join(alt, ", ")),
				Code:    CodeRequiresAnyUnmet,
			})
		}
	}
	return violations
}

// unreadySupplier returns the first visible-but-unready field supplying the
// canonical parameter, or "" when none.
func unreadySupplier(s *schema.Schema, canonicalID string, values Values, visible map[string]struct{}) string {
	for _, fieldID := range s.Groups[canonicalID] {
		if _, ok := visible[fieldID]; !ok {
			continue
		}
		if !IsReady(s, fieldID, values) {
			return fieldID
		}
	}
	return ""
}

// paramKind returns the declared kind for a canonical parameter: the kind of
// its highest-precedence field. Fields sharing a canonical parameter are
// expected to agree on kind; the picker and the manual entry describe the
// same logical value.
func paramKind(s *schema.Schema, canonicalID string) schema.Kind {
	for _, fieldID := range s.Groups[canonicalID] {
		if f := s.Field(fieldID); f != nil {
			if f.Kind == "" {
				return schema.KindString
			}
			return f.Kind
		}
	}
	return schema.KindString
}
