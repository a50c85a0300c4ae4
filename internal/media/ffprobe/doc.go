// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes a
// payload captured elsewhere. The audio extractor uses FirstAudio to tell a
// file with no audio track apart from one ffprobe cannot read at all.
package ffprobe
