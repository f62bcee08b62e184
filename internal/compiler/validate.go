package compiler

import (
	"fmt"
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// Validate checks a schema document against all load-time rules.
// Returns all errors found (does not fail-fast): a schema author fixes the
// whole document in one pass instead of replaying compile-fix loops.
//
// Cycle detection runs separately (see DetectCycles) because it only makes
// sense once every dependsOn reference resolves.
func Validate(doc *schema.Document) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(doc.BlockType) == "" {
		errs = append(errs, ValidationError{
			Field:   "blockType",
			Message: "blockType is required and must be non-empty",
			Code:    ErrBlockTypeEmpty,
		})
	}

	if len(doc.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "at least one field is required",
			Code:    ErrNoFields,
		})
	}

	fieldIDs := make(map[string]bool, len(doc.Fields))
	for i, f := range doc.Fields {
		if fieldIDs[f.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].id", i),
				Message: fmt.Sprintf("duplicate field id: %q", f.ID),
				Code:    ErrDuplicateField,
			})
		}
		fieldIDs[f.ID] = true
	}

	errs = append(errs, validateFields(doc, fieldIDs)...)
	errs = append(errs, validateGroups(doc, fieldIDs)...)

	actionIDs := make(map[string]bool, len(doc.Actions))
	if len(doc.Actions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "actions",
			Message: "at least one action is required",
			Code:    ErrNoActions,
		})
	}
	for i, a := range doc.Actions {
		if actionIDs[a.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("actions[%d].id", i),
				Message: fmt.Sprintf("duplicate action id: %q", a.ID),
				Code:    ErrDuplicateAction,
			})
		}
		actionIDs[a.ID] = true
	}

	canonicalIDs := canonicalParams(doc)
	errs = append(errs, validateOperation(doc, fieldIDs, actionIDs)...)
	errs = append(errs, validateActions(doc, canonicalIDs)...)

	return errs
}

// validateFields checks per-field rules: mode, kind, condition references,
// and dependsOn references.
func validateFields(doc *schema.Document, fieldIDs map[string]bool) []ValidationError {
	var errs []ValidationError

	for i, f := range doc.Fields {
		if f.Mode != "" && !schema.ValidModes[f.Mode] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].mode", i),
				Message: fmt.Sprintf("invalid mode %q, must be one of: basic, advanced", f.Mode),
				Code:    ErrInvalidMode,
			})
		}
		if f.Kind != "" && !schema.ValidKinds[f.Kind] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].kind", i),
				Message: fmt.Sprintf("invalid kind %q, must be one of: string, number, boolean, json, array", f.Kind),
				Code:    ErrInvalidKind,
			})
		}

		for _, ref := range conditionFields(f.Condition) {
			if !fieldIDs[ref] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("fields[%d].condition", i),
					Message: fmt.Sprintf("condition references unknown field %q", ref),
					Code:    ErrConditionUnknownField,
				})
			}
			if ref == f.ID {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("fields[%d].condition", i),
					Message: fmt.Sprintf("condition on field %q references itself", f.ID),
					Code:    ErrConditionSelfRef,
				})
			}
		}

		for j, dep := range f.DependsOn {
			if !fieldIDs[dep] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("fields[%d].dependsOn[%d]", i, j),
					Message: fmt.Sprintf("dependsOn references unknown field %q", dep),
					Code:    ErrDependsOnUnknownField,
				})
			}
			if dep == f.ID {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("fields[%d].dependsOn[%d]", i, j),
					Message: fmt.Sprintf("field %q depends on itself", f.ID),
					Code:    ErrDependsOnSelf,
				})
			}
		}
	}

	return errs
}

// validateGroups checks declared canonical groups and flags undeclared
// precedence ambiguity. Precedence must be a schema property, never an
// accident of declaration order between same-mode fields.
func validateGroups(doc *schema.Document, fieldIDs map[string]bool) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]int) // canonical param -> group index
	for i, g := range doc.Groups {
		if prev, ok := declared[g.CanonicalParam]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("groups[%d]", i),
				Message: fmt.Sprintf("canonical param %q already declared by groups[%d]", g.CanonicalParam, prev),
				Code:    ErrGroupDuplicateCanonical,
			})
			continue
		}
		declared[g.CanonicalParam] = i

		member := make(map[string]bool, len(g.Fields))
		for j, id := range g.Fields {
			member[id] = true
			f := findField(doc, id)
			if f == nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("groups[%d].fields[%d]", i, j),
					Message: fmt.Sprintf("group lists unknown field %q", id),
					Code:    ErrGroupUnknownField,
				})
				continue
			}
			if f.Canonical() != g.CanonicalParam {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("groups[%d].fields[%d]", i, j),
					Message: fmt.Sprintf("field %q has canonical param %q, not %q", id, f.Canonical(), g.CanonicalParam),
					Code:    ErrGroupWrongCanonical,
				})
			}
		}

		// A declared group must be total: omitting a sharing field would
		// leave its precedence undefined.
		for _, f := range doc.Fields {
			if f.Canonical() == g.CanonicalParam && !member[f.ID] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("groups[%d]", i),
					Message: fmt.Sprintf("group for %q omits field %q which shares the canonical param", g.CanonicalParam, f.ID),
					Code:    ErrGroupIncomplete,
				})
			}
		}
	}

	// Without a declared group, precedence derives from mode (basic before
	// advanced). Two same-mode fields sharing a canonical param have no
	// derivable order and must declare one.
	byCanonical := make(map[string][]schema.FieldSpec)
	for _, f := range doc.Fields {
		byCanonical[f.Canonical()] = append(byCanonical[f.Canonical()], f)
	}
	for canonical, fields := range byCanonical {
		if len(fields) < 2 {
			continue
		}
		if _, ok := declared[canonical]; ok {
			continue
		}
		seenMode := make(map[schema.Mode]string)
		for _, f := range fields {
			mode := f.Mode
			if mode == "" {
				mode = schema.ModeBasic
			}
			if other, dup := seenMode[mode]; dup {
				errs = append(errs, ValidationError{
					Field:   "groups",
					Message: fmt.Sprintf("fields %q and %q share canonical param %q with the same mode; declare a group with an explicit precedence order", other, f.ID, canonical),
					Code:    ErrAmbiguousPrecedence,
				})
			} else {
				seenMode[mode] = f.ID
			}
		}
	}

	return errs
}

// validateOperation checks the discriminator, policy, and action mapping.
func validateOperation(doc *schema.Document, fieldIDs, actionIDs map[string]bool) []ValidationError {
	var errs []ValidationError
	op := doc.Operation

	if !fieldIDs[op.Discriminator] {
		errs = append(errs, ValidationError{
			Field:   "operation.discriminator",
			Message: fmt.Sprintf("discriminator %q is not a declared field", op.Discriminator),
			Code:    ErrDiscriminatorUnknown,
		})
	}

	if op.UnknownPolicy != "" && !schema.ValidPolicies[op.UnknownPolicy] {
		errs = append(errs, ValidationError{
			Field:   "operation.unknownValuePolicy",
			Message: fmt.Sprintf("invalid policy %q, must be one of: strict-throw, fallback-default", op.UnknownPolicy),
			Code:    ErrInvalidPolicy,
		})
	}

	for value, actionID := range op.Mapping {
		if !actionIDs[actionID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("operation.mapping[%q]", value),
				Message: fmt.Sprintf("mapping target %q is not a declared action", actionID),
				Code:    ErrMappingUnknownAction,
			})
		}
	}

	if op.Default != "" && !actionIDs[op.Default] {
		errs = append(errs, ValidationError{
			Field:   "operation.default",
			Message: fmt.Sprintf("default action %q is not declared", op.Default),
			Code:    ErrDefaultUnknownAction,
		})
	}
	if op.Policy() == schema.PolicyFallbackDefault && op.Default == "" {
		errs = append(errs, ValidationError{
			Field:   "operation.default",
			Message: "fallback-default policy requires a default action",
			Code:    ErrDefaultMissing,
		})
	}

	return errs
}

// validateActions checks that action rules only reference declared canonical
// params. Payload keys, requirements, and defaults all resolve against the
// canonical namespace, never raw field ids.
func validateActions(doc *schema.Document, canonicalIDs map[string]bool) []ValidationError {
	var errs []ValidationError

	for i, a := range doc.Actions {
		for j, p := range a.Params {
			if !canonicalIDs[p] {
				errs = append(errs, unknownParam(fmt.Sprintf("actions[%d].params[%d]", i, j), p))
			}
		}
		for j, p := range a.Requires {
			if !canonicalIDs[p] {
				errs = append(errs, unknownParam(fmt.Sprintf("actions[%d].requires[%d]", i, j), p))
			}
		}
		for j, alt := range a.RequiresAny {
			for _, p := range alt {
				if !canonicalIDs[p] {
					errs = append(errs, unknownParam(fmt.Sprintf("actions[%d].requiresAny[%d]", i, j), p))
				}
			}
		}
		for p := range a.Defaults {
			if !canonicalIDs[p] {
				errs = append(errs, unknownParam(fmt.Sprintf("actions[%d].defaults[%q]", i, p), p))
			}
		}
	}

	return errs
}

func unknownParam(field, param string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("unknown canonical param %q", param),
		Code:    ErrActionUnknownParam,
	}
}

// canonicalParams collects every canonical param id declared by the fields.
func canonicalParams(doc *schema.Document) map[string]bool {
	ids := make(map[string]bool, len(doc.Fields))
	for _, f := range doc.Fields {
		ids[f.Canonical()] = true
	}
	return ids
}

// conditionFields returns the field ids referenced by a condition chain.
func conditionFields(c *schema.Condition) []string {
	if c == nil {
		return nil
	}
	return c.Fields()
}

func findField(doc *schema.Document, id string) *schema.FieldSpec {
	for i := range doc.Fields {
		if doc.Fields[i].ID == id {
			return &doc.Fields[i]
		}
	}
	return nil
}
