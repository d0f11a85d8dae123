package engine

import (
	"context"
	"iter"
)

// Evaluator evaluates the opaque expressions of a comprehension.
//
// vars holds every name in scope: globals first, then the bindings of each
// clause from outer to inner, inner names shadowing outer ones.
type Evaluator interface {
	// Check validates expression syntax without evaluating it. It runs at
	// expansion time, before any source is pulled.
	Check(expr string) error

	// Eval evaluates a guard or mapper expression to a value.
	Eval(ctx context.Context, expr string, vars map[string]any) (any, error)

	// Iterate evaluates a source expression to a lazy sequence of elements.
	// Errors for values that cannot be iterated should wrap ErrNotIterable.
	Iterate(ctx context.Context, expr string, vars map[string]any) (iter.Seq2[any, error], error)
}
