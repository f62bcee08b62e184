package compiler

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E159).
const (
	// Document-level errors (E100-E109)
	ErrBlockTypeEmpty  = "E101" // blockType is required
	ErrNoFields        = "E102" // at least one field required
	ErrDuplicateField  = "E103" // duplicate field id
	ErrInvalidKind     = "E104" // invalid value kind
	ErrInvalidMode     = "E105" // invalid field mode
	ErrNoActions       = "E106" // at least one action required
	ErrDuplicateAction = "E107" // duplicate action id

	// Condition errors (E110-E119)
	ErrConditionUnknownField = "E110" // condition references unknown field
	ErrConditionSelfRef      = "E111" // condition references its own field

	// Dependency errors (E120-E129)
	ErrDependsOnUnknownField = "E120" // dependsOn references unknown field
	ErrDependsOnSelf         = "E121" // field depends on itself
	ErrDependencyCycle       = "E122" // dependsOn edges form a cycle

	// Operation rule errors (E130-E139)
	ErrDiscriminatorUnknown = "E130" // discriminator is not a declared field
	ErrInvalidPolicy        = "E131" // invalid unknownValuePolicy
	ErrMappingUnknownAction = "E132" // mapping target is not a declared action
	ErrDefaultUnknownAction = "E133" // default action is not declared
	ErrDefaultMissing       = "E134" // fallback-default policy without a default

	// Canonical group errors (E140-E149)
	ErrGroupUnknownField       = "E140" // group lists an unknown field
	ErrGroupWrongCanonical     = "E141" // group lists a field with a different canonical param
	ErrGroupIncomplete         = "E142" // group omits a field sharing its canonical param
	ErrAmbiguousPrecedence     = "E143" // same-mode fields share a canonical param without a declared order
	ErrGroupDuplicateCanonical = "E144" // two groups declare the same canonical param

	// Action rule errors (E150-E159)
	ErrActionUnknownParam = "E150" // action rule references unknown canonical param
)

// ValidationError represents one schema validation defect.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// SchemaError aggregates every validation defect found in one compile pass.
// Load-time errors are fatal: a process must never start serving a schema
// that produced one.
type SchemaError struct {
	BlockType string
	Errors    []ValidationError
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("schema %q: %s", e.BlockType, e.Errors[0].Error())
	}
	lines := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		lines = append(lines, "  "+ve.Error())
	}
	return fmt.Sprintf("schema %q: %d validation errors:\n%s",
		e.BlockType, len(e.Errors), strings.Join(lines, "\n"))
}
