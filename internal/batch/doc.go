// Package batch runs one per-file operation over a directory tree.
//
// Discover walks the tree once, filters by extension, and skips the
// "<target>dB" namespaces earlier runs wrote, so Plan hands the Runner a
// complete job list before any work starts. The Runner dispatches jobs to a
// bounded errgroup pool; a failing or panicking job is recorded in the
// Summary and never cancels its siblings. Execute ties it together: run lock,
// run id, reporters, and the optional history ledger.
package batch
