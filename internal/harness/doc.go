// Package harness runs simplification scenarios as executable contract
// tests.
//
// # Scenario Format
//
// Scenarios are YAML files with an inline CUE program:
//
//	name: nat_add_zero
//	description: "add_zero fires below an untouched succ"
//	program: |
//	  decls: {
//	    Nat: type: "Type"
//	    zero: type: "Nat"
//	  }
//	  rules: {
//	    add_zero: {lhs: "(add ?n zero)", rhs: "?n"}
//	  }
//	input: "(succ (add (succ zero) zero))"
//	max_steps: 100
//	expect:
//	  output: "(succ (succ zero))"
//	  rewrites: [add_zero]
//
// Exactly one of expect.output and expect.error (an engine error code such
// as STEPS_EXCEEDED) must be set. expect.rewrites, when present, must equal
// the rule names of the trace in order.
//
// # Deterministic Testing
//
// Each run uses sequential local names (tctx.SeqNames) and a fresh
// testutil.DeterministicClock for trace seqs, so the same scenario always
// produces byte-identical traces for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/nat_add_zero.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
