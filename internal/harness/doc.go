// Package harness runs comprehension scenarios: a comprehension, the data
// it runs over, the expected result or error, and assertions over the
// evaluation trace.
//
// Scenario files are YAML:
//
//	name: filter_before_map
//	description: the guard runs before the mapper
//	comprehension: "sequence; for x in xs => x * 2, if mod(x, 2) == 0"
//	data:
//	  values:
//	    xs: [1, 2, 3, 4]
//	expect:
//	  result: [4, 8]
//	assertions:
//	  - type: guard_before_map
//	  - type: trace_count
//	    kind: map
//	    count: 2
//
// Each scenario runs against a fresh evaluator with a deterministic run id
// and logical trace clock, so traces can be compared against golden files.
package harness
