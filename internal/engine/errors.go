package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Violation codes (V100-V199). Request-time violations are typed results,
// never exceptions used for control flow.
const (
	// CodeMissingRequired indicates a required canonical parameter is empty.
	CodeMissingRequired = "V101"

	// CodeRequiresAnyUnmet indicates a composite "one of" rule with every
	// alternative empty.
	CodeRequiresAnyUnmet = "V102"

	// CodeDependencyNotReady indicates a required parameter is supplied only
	// by fields whose dependencies are unmet.
	CodeDependencyNotReady = "V103"

	// CodeInvalidValue indicates a value that failed kind coercion.
	CodeInvalidValue = "V104"

	// CodeUnknownOperation indicates a discriminator value with no mapped
	// action under strict-throw policy. The compilation is rejected whole.
	CodeUnknownOperation = "V110"
)

// Violation is one defect found while compiling parameters.
type Violation struct {
	Param   string `json:"param"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Param, v.Message)
}

// ValidationError aggregates every violation found in one compilation pass.
// All missing or invalid values are reported together, never one at a time,
// so batch validation and UI feedback stay uniform.
type ValidationError struct {
	ActionID   string      `json:"actionId"`
	Violations []Violation `json:"violations"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("action %q: %s", e.ActionID, e.Violations[0].String())
	}
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, "  "+v.String())
	}
	return fmt.Sprintf("action %q: %d violations:\n%s",
		e.ActionID, len(e.Violations), strings.Join(lines, "\n"))
}

// UnknownOperationError reports a discriminator value absent from the
// operation mapping under strict-throw policy. Surfaced as a rejected
// compilation, never retried automatically.
type UnknownOperationError struct {
	Value         string
	Discriminator string
}

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q for discriminator %q", e.Value, e.Discriminator)
}

// DependencyNotReadyError reports unmet dependencies for a field. It is a
// soft signal consumed by UI renderers; it only hardens into a compile
// violation when the selected action requires the unready field's value.
type DependencyNotReadyError struct {
	FieldID string
	Missing []string
}

// Error implements the error interface.
func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("field %q is not ready: waiting on %s",
		e.FieldID, strings.Join(e.Missing, ", "))
}

// IsValidationError returns true if the error is an aggregated validation
// error. Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnknownOperation returns true if the error is an unknown-operation
// rejection. Uses errors.As to handle wrapped errors.
func IsUnknownOperation(err error) bool {
	var ue *UnknownOperationError
	return errors.As(err, &ue)
}

// IsDependencyNotReady returns true if the error is a soft readiness signal.
func IsDependencyNotReady(err error) bool {
	var de *DependencyNotReadyError
	return errors.As(err, &de)
}
