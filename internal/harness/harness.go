package harness

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/formwell/formwell/internal/compiler"
	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/schema"
)

// Outcome classifies a case result.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
)

// CaseResult captures the actual outcome of one case plus any expectation
// mismatches.
type CaseResult struct {
	Name          string
	Outcome       string
	ActionID      string
	Payload       map[string]any
	Violations    []engine.Violation
	VisibleFields []string

	// Errors lists expectation mismatches. Empty means the case passed.
	Errors []string
}

// Result is the outcome of running a full scenario.
type Result struct {
	ScenarioName string
	Pass         bool
	Cases        []CaseResult
}

// Run executes a scenario: compiles the schema document once, then runs
// every case through the engine and checks its expectations.
//
// Returns an error only for harness-level failures (unreadable schema,
// schema validation errors). Case expectation mismatches are reported in
// the result, never as errors.
func Run(scenario *Scenario) (*Result, error) {
	compiled, err := loadSchema(scenario.Schema)
	if err != nil {
		return nil, err
	}

	result := &Result{ScenarioName: scenario.Name, Pass: true}
	for _, c := range scenario.Cases {
		cr := runCase(compiled, c)
		if len(cr.Errors) > 0 {
			result.Pass = false
		}
		result.Cases = append(result.Cases, cr)
	}
	return result, nil
}

// loadSchema reads and compiles the YAML schema document.
func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var doc schema.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	compiled, err := compiler.Compile(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// runCase compiles one value set and checks the case's expectations.
func runCase(s *schema.Schema, c Case) CaseResult {
	cr := CaseResult{Name: c.Name}

	values := engine.Values(c.Values)
	cr.VisibleFields = sortedKeys(engine.VisibleFields(s, values))

	result, compileErr := engine.Compile(s, values)
	switch {
	case compileErr == nil:
		cr.Outcome = OutcomeValid
		cr.ActionID = result.ActionID
		cr.Payload = result.Payload
	case engine.IsValidationError(compileErr):
		cr.Outcome = OutcomeInvalid
		var ve *engine.ValidationError
		errors.As(compileErr, &ve)
		cr.ActionID = ve.ActionID
		cr.Violations = ve.Violations
	case engine.IsUnknownOperation(compileErr):
		cr.Outcome = OutcomeRejected
	default:
		cr.Errors = append(cr.Errors, fmt.Sprintf("unexpected error: %v", compileErr))
		return cr
	}

	checkExpectations(&cr, c.Expect)
	return cr
}

// checkExpectations appends a mismatch string for every failed expectation.
func checkExpectations(cr *CaseResult, expect *ExpectClause) {
	switch {
	case expect.Rejected:
		if cr.Outcome != OutcomeRejected {
			cr.Errors = append(cr.Errors, fmt.Sprintf("expected rejection, got outcome %q", cr.Outcome))
		}

	case len(expect.Violations) > 0:
		if cr.Outcome != OutcomeInvalid {
			cr.Errors = append(cr.Errors, fmt.Sprintf("expected violations, got outcome %q", cr.Outcome))
			break
		}
		checkViolations(cr, expect.Violations)

	default:
		if cr.Outcome != OutcomeValid {
			cr.Errors = append(cr.Errors, fmt.Sprintf("expected action %q, got outcome %q", expect.Action, cr.Outcome))
			break
		}
		if cr.ActionID != expect.Action {
			cr.Errors = append(cr.Errors, fmt.Sprintf("expected action %q, got %q", expect.Action, cr.ActionID))
		}
		if expect.Payload != nil {
			checkPayload(cr, expect.Payload)
		}
	}

	if len(expect.VisibleFields) > 0 {
		want := append([]string(nil), expect.VisibleFields...)
		sort.Strings(want)
		if !equalStrings(cr.VisibleFields, want) {
			cr.Errors = append(cr.Errors, fmt.Sprintf("expected visible fields %v, got %v", want, cr.VisibleFields))
		}
	}
}

// checkViolations matches actual violations against expectations by param
// and code, order-insensitive.
func checkViolations(cr *CaseResult, expected []ExpectedViolation) {
	if len(cr.Violations) != len(expected) {
		cr.Errors = append(cr.Errors, fmt.Sprintf("expected %d violation(s), got %d", len(expected), len(cr.Violations)))
	}
	for _, want := range expected {
		found := false
		for _, got := range cr.Violations {
			if got.Param == want.Param && got.Code == want.Code {
				found = true
				break
			}
		}
		if !found {
			cr.Errors = append(cr.Errors, fmt.Sprintf("missing violation %s on %q", want.Code, want.Param))
		}
	}
}

// checkPayload compares payloads by canonical JSON, which normalizes the
// numeric type differences between YAML expectations and coerced values.
func checkPayload(cr *CaseResult, expected map[string]any) {
	wantJSON, err := schema.MarshalCanonical(expected)
	if err != nil {
		cr.Errors = append(cr.Errors, fmt.Sprintf("expected payload not canonicalizable: %v", err))
		return
	}
	gotJSON, err := schema.MarshalCanonical(cr.Payload)
	if err != nil {
		cr.Errors = append(cr.Errors, fmt.Sprintf("payload not canonicalizable: %v", err))
		return
	}
	if string(wantJSON) != string(gotJSON) {
		cr.Errors = append(cr.Errors, fmt.Sprintf("payload mismatch:\n  want %s\n  got  %s", wantJSON, gotJSON))
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
