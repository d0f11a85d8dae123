// Package dataset loads the globals and named sources a comprehension is
// evaluated against.
//
// A dataset is a YAML (or JSON) document:
//
//	values:
//	  threshold: 3
//	  names: [ada, alan]
//	sources:
//	  nums:   {range: {start: 1, stop: 5}}
//	  evens:  {range: {start: 0, step: 2}}        # no stop: infinite
//	  fixed:  {values: [1, 2, 3]}
//	  orders: {sqlite: {path: shop.db, query: "SELECT * FROM orders"}}
//
// Values become global variables. Sources are registered with the
// expression evaluator and are pulled lazily, one element at a time.
package dataset
