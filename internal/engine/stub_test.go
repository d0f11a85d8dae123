package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// stubEvaluator resolves expressions by exact text to Go functions.
type stubEvaluator struct {
	fns   map[string]func(vars map[string]any) (any, error)
	calls []string
}

func newStub() *stubEvaluator {
	return &stubEvaluator{fns: make(map[string]func(map[string]any) (any, error))}
}

func (s *stubEvaluator) on(expr string, fn func(vars map[string]any) (any, error)) *stubEvaluator {
	s.fns[expr] = fn
	return s
}

// value registers a constant.
func (s *stubEvaluator) value(expr string, v any) *stubEvaluator {
	return s.on(expr, func(map[string]any) (any, error) { return v, nil })
}

// variable registers an expression that reads a bound name.
func (s *stubEvaluator) variable(name string) *stubEvaluator {
	return s.on(name, func(vars map[string]any) (any, error) {
		v, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("undefined: %s", name)
		}
		return v, nil
	})
}

func (s *stubEvaluator) Check(expr string) error {
	if _, ok := s.fns[expr]; !ok {
		return errors.New("unknown expression")
	}
	return nil
}

func (s *stubEvaluator) Eval(_ context.Context, expr string, vars map[string]any) (any, error) {
	s.calls = append(s.calls, expr)
	fn, ok := s.fns[expr]
	if !ok {
		return nil, fmt.Errorf("unknown expression %q", expr)
	}
	return fn(vars)
}

func (s *stubEvaluator) Iterate(ctx context.Context, expr string, vars map[string]any) (iter.Seq2[any, error], error) {
	v, err := s.Eval(ctx, expr, vars)
	if err != nil {
		return nil, err
	}
	switch src := v.(type) {
	case []any:
		return func(yield func(any, error) bool) {
			for _, e := range src {
				if !yield(e, nil) {
					return
				}
			}
		}, nil
	case iter.Seq2[any, error]:
		return src, nil
	default:
		return nil, fmt.Errorf("%T: %w", v, ErrNotIterable)
	}
}

func (s *stubEvaluator) count(expr string) int {
	n := 0
	for _, c := range s.calls {
		if c == expr {
			n++
		}
	}
	return n
}

func ints(xs ...int64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func naturals() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for i := int64(0); ; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}
}

