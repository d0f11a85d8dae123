package comp

import "iter"

// Pair is one key/value element of a mapping-producing sequence.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Slice drains seq in order. Duplicates are kept.
func Slice[T any](seq iter.Seq[T]) []T {
	out := []T{}
	for t := range seq {
		out = append(out, t)
	}
	return out
}

// Set drains seq into a set. Duplicates collapse silently.
func Set[T comparable](seq iter.Seq[T]) map[T]struct{} {
	out := make(map[T]struct{})
	for t := range seq {
		out[t] = struct{}{}
	}
	return out
}

// Mapping drains key/value pairs. When a key repeats, the later value wins.
func Mapping[K comparable, V any](seq iter.Seq[Pair[K, V]]) map[K]V {
	out := make(map[K]V)
	for p := range seq {
		out[p.Key] = p.Value
	}
	return out
}

// SetBy drains seq into a set keyed by key(t), for elements that are not
// comparable themselves. The first element with a given key is kept.
func SetBy[T any, K comparable](seq iter.Seq[T], key func(T) K) map[K]T {
	out := make(map[K]T)
	for t := range seq {
		k := key(t)
		if _, ok := out[k]; !ok {
			out[k] = t
		}
	}
	return out
}

// MapBy drains seq into a map using kv to split each element. Last write
// wins.
func MapBy[T any, K comparable, V any](seq iter.Seq[T], kv func(T) (K, V)) map[K]V {
	out := make(map[K]V)
	for t := range seq {
		k, v := kv(t)
		out[k] = v
	}
	return out
}
