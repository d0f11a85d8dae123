// Package pipeline turns a parsed comprehension into a plan of nested lazy
// stages.
//
// The plan mirrors the expansion one to one:
//
//	for p1 in s1; for p2 in s2; for p3 in s3 => m, if g
//
//	FlatMap(p1 in s1)
//	  FlatMap(p2 in s2)
//	    FilterMap(p3 in s3, guard g, mapper m)
//
// Every clause but the last becomes a FlatMap whose inner stage is the plan
// of the remaining clauses. The last clause becomes a FilterMap that runs
// the guard first and the mapper only for elements the guard accepts. The
// guard and mapper are attached to the innermost stage only, but they are
// evaluated with every binding in scope.
//
// Stage is a sealed interface: only *FlatMap and *FilterMap implement it,
// so lowering code can switch over it exhaustively.
package pipeline
