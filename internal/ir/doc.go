// Package ir provides the intermediate representation of a parsed
// comprehension.
//
// This package contains type definitions and identity helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A ClauseChain always holds at least one GeneratorClause
//   - Clauses are ordered outer to inner, exactly as written
//   - Expressions are opaque text slices of the input; ir never looks inside
//   - Nothing is mutated after parsing
//   - All JSON tags use snake_case
package ir
