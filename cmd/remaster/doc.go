// Package main hosts the remaster CLI.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the structured logger on stderr, and hands batch work to internal/batch.
// Stdout is reserved for the batch announcement, produced output paths, and
// the completion marker so the CLI composes with other tools.
package main
