package expr

import (
	"context"
	"iter"
	"slices"

	"github.com/roach88/comprehend/pkg/comp"
)

func widen(i int64) any { return i }

// RangeSource yields start, start+step, ... excluding stop.
func RangeSource(start, stop, step int64) Source {
	return func(context.Context) iter.Seq2[any, error] {
		return comp.Ok(comp.Map(comp.Range(start, stop, step), widen))
	}
}

// CountSource yields start, start+step, ... without end.
func CountSource(start, step int64) Source {
	return func(context.Context) iter.Seq2[any, error] {
		return comp.Ok(comp.Map(comp.Count(start, step), widen))
	}
}

// ValuesSource yields a fixed list of values.
func ValuesSource(values []any) Source {
	return func(context.Context) iter.Seq2[any, error] {
		return comp.Ok(slices.Values(values))
	}
}
