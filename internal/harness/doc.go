// Package harness provides conformance testing for form schemas.
//
// The harness loads a schema document, runs value sets through the full
// resolution pipeline (visibility, canonical precedence, action selection,
// payload compilation), and checks each case's expectations as executable
// contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: path/to/schema.yaml
//	cases:
//	  - name: case_name
//	    values: { state: "Archive", targetFolder: "Projects" }
//	    expect:
//	      action: archiveMessage
//	      payload: { folder: "Projects" }
//	  - name: failing_case
//	    values: { state: "Move" }
//	    expect:
//	      violations:
//	        - param: folder
//	          code: V101
//	  - name: rejected_case
//	    values: { state: "Snooze" }
//	    expect:
//	      rejected: true
//
// Exactly one of payload expectations, violations, or rejected applies per
// case. Payload matches are exact; violation matches check param and code.
//
// # Deterministic Snapshots
//
// Every case result serializes to canonical JSON, so a scenario's full
// outcome can be compared against a golden file:
//
//	scenario, _ := harness.LoadScenario("testdata/scenarios/mail.yaml")
//	harness.RunWithGolden(t, scenario)
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
