package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario. A scenario binds one schema
// document to a list of value sets with expected compilation outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path to the YAML schema document, relative to the
	// scenario file location.
	Schema string `yaml:"schema"`

	// Cases are the value sets to compile, in order.
	Cases []Case `yaml:"cases"`
}

// Case is one value set plus its expected outcome.
type Case struct {
	// Name uniquely identifies this case within the scenario.
	Name string `yaml:"name"`

	// Values are the raw field values, keyed by field id.
	Values map[string]string `yaml:"values"`

	// Expect specifies the expected outcome. Required.
	Expect *ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected compilation outcome for a case.
// Exactly one of the three outcome shapes applies: a successful action with
// a payload, a list of violations, or a rejection.
type ExpectClause struct {
	// Action is the expected selected action id (successful outcome).
	Action string `yaml:"action,omitempty"`

	// Payload contains the expected payload. Exact match: every expected
	// entry must be present with the given value, and no extra entries
	// are allowed.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Violations lists expected violations by param and code.
	// Order-insensitive; the count must match exactly.
	Violations []ExpectedViolation `yaml:"violations,omitempty"`

	// Rejected marks the case as an unknown-operation rejection.
	Rejected bool `yaml:"rejected,omitempty"`

	// VisibleFields optionally pins the exact set of visible field ids.
	// Checked for any outcome shape when non-empty.
	VisibleFields []string `yaml:"visibleFields,omitempty"`
}

// ExpectedViolation matches one violation by canonical param and code.
type ExpectedViolation struct {
	Param string `yaml:"param"`
	Code  string `yaml:"code"`
}

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the scenario file. Returns an error if the file is
// malformed, contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema path is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Values == nil {
			return fmt.Errorf("cases[%d]: values is required (use empty map if no values)", i)
		}
		if c.Expect == nil {
			return fmt.Errorf("cases[%d]: expect is required", i)
		}
		if err := validateExpect(i, c.Expect); err != nil {
			return err
		}
	}

	return nil
}

// validateExpect validates that exactly one outcome shape is declared.
func validateExpect(index int, e *ExpectClause) error {
	shapes := 0
	if e.Action != "" || e.Payload != nil {
		shapes++
		if e.Action == "" {
			return fmt.Errorf("cases[%d].expect: action is required when payload is set", index)
		}
	}
	if len(e.Violations) > 0 {
		shapes++
	}
	if e.Rejected {
		shapes++
	}

	if shapes == 0 {
		return fmt.Errorf("cases[%d].expect: one of action/payload, violations, or rejected is required", index)
	}
	if shapes > 1 {
		return fmt.Errorf("cases[%d].expect: action/payload, violations and rejected are mutually exclusive", index)
	}

	for j, v := range e.Violations {
		if v.Param == "" {
			return fmt.Errorf("cases[%d].expect.violations[%d]: param is required", index, j)
		}
		if v.Code == "" {
			return fmt.Errorf("cases[%d].expect.violations[%d]: code is required", index, j)
		}
	}

	return nil
}
