// Package harness runs pipeline scenarios as executable contract tests.
//
// The harness compiles CUE pipeline specs, runs one pipeline over a fixed
// input through the engine, and checks the output.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: adults_by_name
//	description: "Adults sorted by name"
//	specs:
//	  - ../specs/people.cue
//	pipeline: adults
//	input_file: ../data/people.json
//	expect:
//	  - { name: alice, age: 34 }
//	assertions:
//	  - type: count
//	    count: 1
//	  - type: contains
//	    item: { name: alice }
//	  - type: ordered_by
//	    field: name
//
// Exactly one of input (an inline list) and input_file (JSON or YAML) is
// required. expect_error replaces expect when the pipeline must fail; it
// names a sequence code (NEGATIVE_COUNT, MIXED_KEY_KINDS,
// UNSUPPORTED_KEY_KIND) or an engine code (INVALID_PIPELINE, STEP_FAILED).
//
// # Assertion Types
//
//   - count: Verifies the number of output items
//   - contains: Verifies some output item has the given fields
//   - ordered_by: Verifies the output is sorted by a field
//
// # Deterministic Testing
//
// Every scenario runs on a fresh engine with a fixed run ID (from run_id,
// or "test-run-default"), so golden snapshots are byte-stable.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/adults.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
