package compiler

import (
	"github.com/formwell/formwell/internal/schema"
)

// Compile validates a schema document and builds the immutable Schema the
// request-time engine consumes. All errors found in one pass are aggregated
// into a single *SchemaError; a Schema and an error are never returned
// together.
func Compile(doc *schema.Document) (*schema.Schema, error) {
	errs := Validate(doc)
	errs = append(errs, DetectCycles(doc.Fields)...)
	if len(errs) > 0 {
		return nil, &SchemaError{BlockType: doc.BlockType, Errors: errs}
	}

	groups := buildGroups(doc)
	order := topoOrder(doc.Fields)
	return schema.NewSchema(doc, groups, order), nil
}

// buildGroups produces the total precedence order per canonical param.
// Declared groups win verbatim; otherwise precedence derives from mode
// (basic before advanced) with declaration order within a mode. Validate has
// already rejected any arrangement that would leave this ambiguous.
func buildGroups(doc *schema.Document) map[string][]string {
	groups := make(map[string][]string)
	for _, g := range doc.Groups {
		groups[g.CanonicalParam] = append([]string(nil), g.Fields...)
	}

	for _, mode := range []schema.Mode{schema.ModeBasic, schema.ModeAdvanced} {
		for _, f := range doc.Fields {
			canonical := f.Canonical()
			if _, declared := declaredGroup(doc, canonical); declared {
				continue
			}
			fieldMode := f.Mode
			if fieldMode == "" {
				fieldMode = schema.ModeBasic
			}
			if fieldMode == mode {
				groups[canonical] = append(groups[canonical], f.ID)
			}
		}
	}
	return groups
}

func declaredGroup(doc *schema.Document, canonical string) (schema.CanonicalGroup, bool) {
	for _, g := range doc.Groups {
		if g.CanonicalParam == canonical {
			return g, true
		}
	}
	return schema.CanonicalGroup{}, false
}

// topoOrder returns a dependency-respecting order of field ids using Kahn's
// algorithm. Ties break by declaration order, so the result is stable for a
// given document regardless of map iteration. Caller guarantees the graph is
// acyclic (DetectCycles ran first).
func topoOrder(fields []schema.FieldSpec) []string {
	indegree := make(map[string]int, len(fields))
	dependents := make(map[string][]string, len(fields))
	position := make(map[string]int, len(fields))

	for i, f := range fields {
		position[f.ID] = i
		if _, ok := indegree[f.ID]; !ok {
			indegree[f.ID] = 0
		}
	}
	for _, f := range fields {
		for _, dep := range f.DependsOn {
			if _, known := position[dep]; !known {
				continue
			}
			indegree[f.ID]++
			dependents[dep] = append(dependents[dep], f.ID)
		}
	}

	// Ready set kept in declaration order.
	var ready []string
	for _, f := range fields {
		if indegree[f.ID] == 0 {
			ready = append(ready, f.ID)
		}
	}

	order := make([]string, 0, len(fields))
	for len(ready) > 0 {
		// Pop the earliest-declared ready field.
		best := 0
		for i := 1; i < len(ready); i++ {
			if position[ready[i]] < position[ready[best]] {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, id)

		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}
