package comp

import "iter"

// Ok lifts an infallible sequence into a fallible one.
func Ok[T any](seq iter.Seq[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for t := range seq {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// Fail returns a sequence that yields err once.
func Fail[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// TryFlatMap is FlatMap over fallible sequences. An error from seq or from
// any inner sequence is yielded and ends the result.
func TryFlatMap[T, U any](seq iter.Seq2[T, error], f func(T) iter.Seq2[U, error]) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		var zero U
		for t, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			for u, err := range f(t) {
				if err != nil {
					yield(zero, err)
					return
				}
				if !yield(u, nil) {
					return
				}
			}
		}
	}
}

// TryFilterMap is FilterMap with a fallible f. An error ends the result.
func TryFilterMap[T, U any](seq iter.Seq2[T, error], f func(T) (U, bool, error)) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		var zero U
		for t, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			u, ok, err := f(t)
			if err != nil {
				yield(zero, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// TryLimit yields at most n elements of seq, stopping early on error.
func TryLimit[T any](seq iter.Seq2[T, error], n int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for t, err := range seq {
			if !yield(t, err) || err != nil {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	}
}

// TryCollect drains seq in order and returns the first error.
func TryCollect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for t, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TrySetBy drains seq into a set keyed by a fallible key function. The
// first element with a given key is kept.
func TrySetBy[T any, K comparable](seq iter.Seq2[T, error], key func(T) (K, error)) (map[K]T, error) {
	out := make(map[K]T)
	for t, err := range seq {
		if err != nil {
			return nil, err
		}
		k, err := key(t)
		if err != nil {
			return nil, err
		}
		if _, ok := out[k]; !ok {
			out[k] = t
		}
	}
	return out, nil
}

// TryMapBy drains seq into a map using a fallible kv. Last write wins.
func TryMapBy[T any, K comparable, V any](seq iter.Seq2[T, error], kv func(T) (K, V, error)) (map[K]V, error) {
	out := make(map[K]V)
	for t, err := range seq {
		if err != nil {
			return nil, err
		}
		k, v, err := kv(t)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
