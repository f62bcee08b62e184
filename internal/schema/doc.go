// Package schema defines the declarative form schema model: field specs,
// visibility conditions, canonical parameter groups, the operation rule that
// selects a backend action, and per-action parameter rules.
//
// A Document is the raw deserialized form of a schema (YAML or CUE). The
// compiler package validates a Document and builds an immutable Schema from
// it. Request-time code only ever sees a compiled Schema; all referential
// defects (unknown fields, dependency cycles, ambiguous precedence) are
// rejected at compile time.
package schema
