// Package logging assembles structured slog loggers and formatting helpers used
// across remaster.
//
// It owns the configurable console/JSON handlers, routes output to stderr
// (stdout is reserved for batch progress lines), optionally mirrors JSON
// records into a per-run file under the log directory, and exposes
// context-aware helpers so pipeline code automatically tags log lines with
// run identifiers, file paths, and pipeline steps. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
