// Package services defines shared utilities consumed by the batch pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, file paths, and pipeline
//     steps for logging.
//   - Structured error markers plus the Wrap helper, and Kind which maps a
//     failure onto the taxonomy reported in summaries and the run ledger.
//
// Use these helpers when wiring new pipeline steps so failures are
// classified the same way everywhere.
package services
