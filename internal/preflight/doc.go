// Package preflight provides readiness checks for the external tools and
// filesystem paths that remaster depends on.
//
// These checks run in two contexts:
//   - The batch commands call RunAll before discovery. If any check fails the
//     batch stops before touching a single file.
//   - The CLI "remaster check" command renders every result as a table.
package preflight
