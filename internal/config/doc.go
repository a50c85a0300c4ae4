// Package config loads, normalizes, and validates remaster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REMASTER_TAG. The Config type centralizes every knob the batch commands
// need: the loudness target, the output audio profile, the extension
// allow-lists, and where logs and the run ledger live.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions, and clear validation errors.
package config
