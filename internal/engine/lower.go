package engine

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/comprehend/internal/ir"
	"github.com/roach88/comprehend/internal/pipeline"
	"github.com/roach88/comprehend/pkg/comp"
)

// Entry is one key/value element produced by a Mapping program.
type Entry struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// run is the state of one pull of a Program.
type run struct {
	p     *Program
	ctx   context.Context
	clock *Clock
}

func (r *run) trace(kind TraceKind, depth int, expr string, value any) {
	if r.p.tracer == nil {
		return
	}
	r.p.tracer.Trace(TraceEvent{
		Seq:   r.clock.Next(),
		Kind:  kind,
		Depth: depth,
		Expr:  expr,
		Value: value,
	})
}

// stage lowers one plan stage onto the comp primitives.
func (r *run) stage(s pipeline.Stage, scope *Scope, depth int) iter.Seq2[any, error] {
	switch st := s.(type) {
	case *pipeline.FlatMap:
		return comp.TryFlatMap(r.bindings(st.Gen, scope, depth), func(inner *Scope) iter.Seq2[any, error] {
			return r.stage(st.Inner, inner, depth+1)
		})
	case *pipeline.FilterMap:
		return comp.TryFilterMap(r.bindings(st.Gen, scope, depth), func(inner *Scope) (any, bool, error) {
			return r.filterMap(st, inner, depth)
		})
	default:
		return comp.Fail[any](fmt.Errorf("engine: unknown stage type %T", s))
	}
}

// bindings evaluates the clause source lazily, on first pull, and yields
// one child scope per element.
func (r *run) bindings(gen ir.GeneratorClause, scope *Scope, depth int) iter.Seq2[*Scope, error] {
	label := gen.Binding.String() + " in " + gen.Source.Text
	return func(yield func(*Scope, error) bool) {
		if err := r.ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		src, err := r.p.ev.Iterate(r.ctx, gen.Source.Text, scope.Vars())
		if err != nil {
			yield(nil, evalError(gen.Source, depth, err))
			return
		}
		for elem, err := range src {
			if err != nil {
				yield(nil, evalError(gen.Source, depth, err))
				return
			}
			if err := r.ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			bound, err := bind(scope, gen.Binding, elem)
			if err != nil {
				yield(nil, &RuntimeError{
					Code:    ErrCodePatternMismatch,
					Message: err.Error(),
					Expr:    gen.Source,
					Depth:   depth,
				})
				return
			}
			r.trace(TraceBind, depth, label, elem)
			if !yield(bound, nil) {
				return
			}
		}
	}
}

// filterMap is the fused innermost step: guard first, mapper only when the
// guard holds.
func (r *run) filterMap(st *pipeline.FilterMap, scope *Scope, depth int) (any, bool, error) {
	vars := scope.Vars()

	if st.Guard != nil {
		v, err := r.p.ev.Eval(r.ctx, st.Guard.Text, vars)
		if err != nil {
			return nil, false, evalError(*st.Guard, depth, err)
		}
		ok, isBool := v.(bool)
		if !isBool {
			return nil, false, &RuntimeError{
				Code:    ErrCodeGuardNotBool,
				Message: fmt.Sprintf("guard must evaluate to a bool, got %s", describe(v)),
				Expr:    *st.Guard,
				Depth:   depth,
			}
		}
		r.trace(TraceGuard, depth, st.Guard.Text, ok)
		if !ok {
			return nil, false, nil
		}
	}

	if st.Mapper.Arity() == 2 {
		key, err := r.eval(st.Mapper.Key(), vars, depth)
		if err != nil {
			return nil, false, err
		}
		value, err := r.eval(st.Mapper.Value(), vars, depth)
		if err != nil {
			return nil, false, err
		}
		return Entry{Key: key, Value: value}, true, nil
	}

	v, err := r.eval(st.Mapper.Value(), vars, depth)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *run) eval(e ir.Expr, vars map[string]any, depth int) (any, error) {
	v, err := r.p.ev.Eval(r.ctx, e.Text, vars)
	if err != nil {
		return nil, evalError(e, depth, err)
	}
	r.trace(TraceMap, depth, e.Text, v)
	return v, nil
}
