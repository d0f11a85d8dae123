package expr

import (
	"fmt"
	"iter"

	"cuelang.org/go/cue"
)

// toGo converts a concrete CUE value into plain Go data.
func toGo(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return b, nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of range: %w", err)
		}
		return i, nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return s, nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case cue.ListKind:
		out := []any{}
		for elem, err := range listSeq(v) {
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		out := make(map[string]any)
		for pair, err := range structSeq(v) {
			if err != nil {
				return nil, err
			}
			kv := pair.([]any)
			out[kv[0].(string)] = kv[1]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of kind %s is not concrete", v.Kind())
	}
}

// listSeq yields the elements of a list, converting each one as it is
// pulled.
func listSeq(v cue.Value) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		it, err := v.List()
		if err != nil {
			yield(nil, err)
			return
		}
		for it.Next() {
			elem, err := toGo(it.Value())
			if !yield(elem, err) || err != nil {
				return
			}
		}
	}
}

// structSeq yields [label, value] pairs of a struct's regular fields in
// declaration order.
func structSeq(v cue.Value) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		it, err := v.Fields()
		if err != nil {
			yield(nil, err)
			return
		}
		for it.Next() {
			fv, err := toGo(it.Value())
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield([]any{it.Selector().Unquoted(), fv}, nil) {
				return
			}
		}
	}
}
