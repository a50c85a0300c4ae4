// Package audio holds decoded PCM in memory and moves it to and from disk.
//
// Buffer is the unit of exchange between extraction, measurement, and
// normalization. Native decoders cover WAV (go-audio/wav), MP3
// (hajimehoshi/go-mp3), and FLAC (mewkiz/flac); everything else is left to
// the ffmpeg fallback in package extract. WriteWAV produces the 16-bit
// intermediate that ffmpeg encodes back into the container's audio codec.
package audio
