// Package media implements the per-file unit of work.
//
// Open extracts audio into a scoped temp directory and measures it. Remaster
// then either copies the source verbatim (no usable audio) or normalizes,
// encodes, remuxes next to the untouched video stream, and tags the result.
// MameINI writes the companion ini file holding the playback volume delta
// and the whitespace-encoded tag. Callers always defer Close, which removes
// the temp directory.
package media
