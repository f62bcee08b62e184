// Package formwell resolves declarative form schemas into validated,
// typed action payloads.
//
// A schema declares fields with visibility conditions and dependency edges,
// canonical parameter groups with precedence, an operation rule selecting a
// backend action from a discriminator value, and per-action requirement
// rules. Loading validates the whole document and rejects defective schemas;
// compilation is purely functional per invocation and safe for arbitrary
// concurrency.
//
// Typical use:
//
//	doc, err := formwell.ParseYAML(raw)
//	sch, err := formwell.Load(doc)
//	result, err := formwell.Compile(sch, formwell.Values{"operation": "read"})
package formwell

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/formwell/formwell/internal/compiler"
	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/schema"
)

// Re-exported core types. The internal packages own the definitions; this
// facade is the supported import surface.
type (
	// Document is a deserialized, not yet validated schema document.
	Document = schema.Document

	// Schema is a compiled, immutable schema safe for concurrent use.
	Schema = schema.Schema

	// Values are raw runtime field values keyed by field id.
	Values = engine.Values

	// Result pairs a selected action with its compiled payload.
	Result = engine.Result

	// SchemaError aggregates every load-time validation defect.
	SchemaError = compiler.SchemaError

	// ValidationError aggregates every request-time violation.
	ValidationError = engine.ValidationError

	// UnknownOperationError is a strict-throw discriminator miss.
	UnknownOperationError = engine.UnknownOperationError
)

// ParseYAML deserializes a YAML schema document without validating it.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load validates and compiles a schema document. Returns a *SchemaError
// carrying every defect found when the document is invalid.
func Load(doc *Document) (*Schema, error) {
	return compiler.Compile(doc)
}

// LoadYAML parses and loads a YAML schema document in one step.
func LoadYAML(data []byte) (*Schema, error) {
	doc, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return Load(doc)
}

// LoadFile reads, parses and loads a YAML schema document from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadYAML(data)
}

// VisibleFields returns the ids of fields whose visibility conditions hold.
func VisibleFields(s *Schema, values Values) map[string]struct{} {
	return engine.VisibleFields(s, values)
}

// IsReady reports whether a field's dependencies all have non-empty
// effective values.
func IsReady(s *Schema, fieldID string, values Values) bool {
	return engine.IsReady(s, fieldID, values)
}

// ReadyFields returns the ids of visible fields whose dependencies are all
// satisfied.
func ReadyFields(s *Schema, values Values) map[string]struct{} {
	return engine.ReadyFields(s, values)
}

// EffectiveValues resolves every canonical parameter through its precedence
// order, considering only visible fields.
func EffectiveValues(s *Schema, values Values) map[string]string {
	return engine.EffectiveValues(s, values)
}

// Compile resolves, selects, validates and coerces values into the selected
// action's payload. Returns *ValidationError with every violation on
// failure, or *UnknownOperationError on a strict-throw discriminator miss.
func Compile(s *Schema, values Values) (*Result, error) {
	return engine.Compile(s, values)
}
