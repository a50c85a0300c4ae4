// Package loudness measures integrated loudness and derives the gain that
// moves a measurement onto a target.
//
// Two meters satisfy the Meter interface: BS1770Meter gates and integrates
// K-weighted block energy in process, and FFmpegMeter delegates to ffmpeg's
// loudnorm analysis. Normalize scales a buffer by the implied gain, and the
// Difference and Level helpers produce the playback delta written to ini
// files.
package loudness
