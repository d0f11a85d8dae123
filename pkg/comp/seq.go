package comp

import "iter"

// FlatMap applies f to every element of seq and concatenates the resulting
// sequences in order.
func FlatMap[T, U any](seq iter.Seq[T], f func(T) iter.Seq[U]) iter.Seq[U] {
	return func(yield func(U) bool) {
		for t := range seq {
			for u := range f(t) {
				if !yield(u) {
					return
				}
			}
		}
	}
}

// FilterMap applies f to every element of seq and yields the results for
// which f reports true. It is the fused filter and map of the innermost
// clause: f decides first, and only then is the mapped value used.
func FilterMap[T, U any](seq iter.Seq[T], f func(T) (U, bool)) iter.Seq[U] {
	return func(yield func(U) bool) {
		for t := range seq {
			u, ok := f(t)
			if !ok {
				continue
			}
			if !yield(u) {
				return
			}
		}
	}
}

// Filter yields the elements of seq for which keep reports true.
func Filter[T any](seq iter.Seq[T], keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for t := range seq {
			if keep(t) && !yield(t) {
				return
			}
		}
	}
}

// Map yields f(t) for every element t of seq.
func Map[T, U any](seq iter.Seq[T], f func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for t := range seq {
			if !yield(f(t)) {
				return
			}
		}
	}
}

// Range yields start, start+step, ... up to but excluding stop. A zero step
// yields nothing.
func Range(start, stop, step int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		switch {
		case step > 0:
			for i := start; i < stop; i += step {
				if !yield(i) {
					return
				}
			}
		case step < 0:
			for i := start; i > stop; i += step {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// Count yields start, start+step, ... forever. Consumers must stop it.
func Count(start, step int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for i := start; ; i += step {
			if !yield(i) {
				return
			}
		}
	}
}

// Limit yields at most n elements of seq. The source is not pulled past the
// n-th element.
func Limit[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for t := range seq {
			if !yield(t) {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	}
}

// Take drains at most n elements of seq into a slice.
func Take[T any](seq iter.Seq[T], n int) []T {
	return Slice(Limit(seq, n))
}
