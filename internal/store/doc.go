// Package store is the SQLite layer: lazy row sources for comprehensions
// and a log of comprehension runs.
//
// Rows turns a query into an iter.Seq2 that steps the underlying cursor
// only as the comprehension pulls, and closes it as soon as the consumer
// stops. This is what lets `for r in orders => ...` run over a table
// without loading it.
//
// The run log (RecordRun, Runs) stores one row per evaluated comprehension
// with its content-addressed id and canonical JSON result, so identical
// comprehensions over identical data can be compared across runs.
//
// OpenSource opens a user's database for reading and leaves its schema
// alone. OpenRunLog owns its database: WAL mode, a single connection (SQLite
// allows one writer at a time) and the runs schema.
package store
