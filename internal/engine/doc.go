// Package engine runs built comprehension plans.
//
// Prepare checks every expression with the evaluator, builds the plan and
// validates it. The resulting Program lowers the plan onto the lazy
// primitives of pkg/comp:
//
//	FlatMap   -> comp.TryFlatMap(bindings(clause), inner)
//	FilterMap -> comp.TryFilterMap(bindings(clause), guard then mapper)
//
// Nothing is evaluated until the sequence is pulled. Each pull drives the
// nested sources exactly like nested loops with an early continue: an
// empty source ends its level without evaluating anything below it, and
// the mapper only runs for bindings the guard accepted.
//
// Run materializes the sequence according to the container kind. Lazy
// hands the sequence back untouched, Sequence keeps insertion order and
// duplicates, Set collapses duplicates by canonical value, and Mapping
// keeps the last value written for each canonical key.
//
// Expressions are opaque to the engine. Sources, guards and mappers are
// evaluated by an Evaluator, and errors it reports are returned as
// *RuntimeError values that unwrap to the evaluator's error.
//
// The engine is single-threaded. A Program may be run many times; every
// run gets a fresh scope and a run id from the configured IDGenerator.
package engine
