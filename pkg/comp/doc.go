// Package comp provides the lazy primitives comprehensions expand into.
//
// A comprehension with clauses c1..cn, guard g and mapper m expands to
//
//	FlatMap(c1, func(x1) ... FlatMap(cn-1, func(xn-1)
//	    FilterMap(cn, func(xn) (m, g)) ...))
//
// Every function here returns an iter.Seq (or iter.Seq2 for the Try
// variants) and does no work until the result is ranged over. Stopping the
// range stops every nested source. The collectors (Slice, Set, Mapping and
// the By/Try variants) are the only functions that drain.
//
// The Try variants carry an error alongside each element. The first error
// is yielded once and the sequence ends; nested sources are not pulled
// again after it.
package comp
