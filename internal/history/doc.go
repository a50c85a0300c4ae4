// Package history records batch runs and their per-file outcomes in SQLite.
//
// A Store satisfies batch.Recorder: BeginRun inserts the run row when the
// batch starts and FinishRun fills in the totals and writes every result in
// a single transaction. The CLI reads the ledger back through ListRuns,
// FindRun, and Results.
//
// The schema is embedded and versioned. A version bump means users delete
// the database; there are no migrations.
package history
