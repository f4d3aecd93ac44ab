// Package harness runs audit scenarios: conformance tests that solve a
// problem document and check the solution against stated expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: guide_minimize_tree
//	description: "What this scenario validates"
//	problem: ../../../problem/testdata/guide.json
//	trim_algorithm: MinimizeAssertions   # optional override
//	work_limit: 0                        # optional, 0 = none
//	expect:
//	  outcome: Ok                        # or an error code, e.g. TiedWinners
//	  winner: 2
//	  difficulty: 27
//	  margin: 500
//	assertions:
//	  - type: count
//	    count: 6
//	  - type: contains
//	    assertion: {type: NEB, winner: 2, loser: 1}
//	  - type: rules_out_losers
//
// The problem path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - contains: the solution includes the given assertion
//   - absent: the solution does not include the given assertion
//   - count: the solution has exactly N assertions
//   - rules_out_losers: every complete elimination order that does not end
//     in the winner is contradicted by some assertion (brute force, small
//     contests only)
//   - difficulty_is_max: the overall difficulty equals the largest
//     per-assertion difficulty
//
// # Deterministic Testing
//
// Every scenario runs with a frozen clock, sequential run IDs and a fresh
// in-memory archive. The solution is archived and read back so that each
// scenario also exercises the archive round trip.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/guide.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
