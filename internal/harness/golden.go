package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/formwell/formwell/internal/schema"
)

// snapshotMap flattens a Result into plain maps and slices for canonical
// JSON serialization.
func snapshotMap(result *Result) map[string]any {
	cases := make([]any, len(result.Cases))
	for i, cr := range result.Cases {
		caseMap := map[string]any{
			"name":    cr.Name,
			"outcome": cr.Outcome,
		}
		if cr.ActionID != "" {
			caseMap["action"] = cr.ActionID
		}
		if cr.Payload != nil {
			caseMap["payload"] = cr.Payload
		}
		if len(cr.Violations) > 0 {
			violations := make([]any, len(cr.Violations))
			for j, v := range cr.Violations {
				violations[j] = map[string]any{
					"param":   v.Param,
					"code":    v.Code,
					"message": v.Message,
				}
			}
			caseMap["violations"] = violations
		}
		if len(cr.VisibleFields) > 0 {
			visible := make([]any, len(cr.VisibleFields))
			for j, f := range cr.VisibleFields {
				visible[j] = f
			}
			caseMap["visibleFields"] = visible
		}
		cases[i] = caseMap
	}

	return map[string]any{
		"scenario": result.ScenarioName,
		"cases":    cases,
	}
}

// RunWithGolden executes a scenario, fails the test on any expectation
// mismatch, and compares the full result snapshot against a golden file in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("running scenario %s: %v", scenario.Name, err)
	}

	for _, cr := range result.Cases {
		for _, msg := range cr.Errors {
			t.Errorf("case %s: %s", cr.Name, msg)
		}
	}

	snapshot, err := schema.MarshalCanonical(snapshotMap(result))
	if err != nil {
		t.Fatalf("marshaling snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
}
