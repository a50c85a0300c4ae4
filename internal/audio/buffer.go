package audio

import (
	"encoding/binary"
	"time"
)

// Buffer holds de-interleaved PCM samples scaled to [-1, 1], one slice per
// channel. All channel slices have the same length.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer allocates a silent buffer.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: make([][]float64, channels)}
	for ch := range b.Channels {
		b.Channels[ch] = make([]float64, frames)
	}
	return b
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.Channels)
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Empty reports whether the buffer carries no samples.
func (b *Buffer) Empty() bool {
	return b.Frames() == 0 || b.SampleRate <= 0
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for ch, samples := range b.Channels {
		out.Channels[ch] = append([]float64(nil), samples...)
	}
	return out
}

// FromInterleaved reshapes interleaved integer samples of the given bit depth
// into a Buffer. Trailing samples that do not fill a whole frame are dropped.
// 8-bit input is treated as unsigned, as in WAV files.
func FromInterleaved(data []int, channels, bitDepth, sampleRate int) *Buffer {
	if channels <= 0 {
		return &Buffer{SampleRate: sampleRate}
	}
	frames := len(data) / channels
	b := NewBuffer(sampleRate, channels, frames)
	scale := fullScale(bitDepth)
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			b.Channels[ch][i] = (float64(data[i*channels+ch]) - offset) / scale
		}
	}
	return b
}

// FromS16LE reshapes raw interleaved signed 16-bit little-endian PCM, the
// format ffmpeg writes with -f s16le, into a Buffer.
func FromS16LE(raw []byte, channels, sampleRate int) *Buffer {
	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return FromInterleaved(samples, channels, 16, sampleRate)
}

// Interleaved quantizes the buffer to signed integers of the given bit depth,
// clipping anything outside full scale.
func (b *Buffer) Interleaved(bitDepth int) []int {
	channels := b.NumChannels()
	frames := b.Frames()
	out := make([]int, frames*channels)
	scale := fullScale(bitDepth)
	maxVal := int(scale) - 1
	minVal := -int(scale)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int(roundHalfAway(b.Channels[ch][i] * scale))
			if v > maxVal {
				v = maxVal
			} else if v < minVal {
				v = minVal
			}
			out[i*channels+ch] = v
		}
	}
	return out
}

func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}

func roundHalfAway(v float64) float64 {
	if v < 0 {
		return float64(int64(v - 0.5))
	}
	return float64(int64(v + 0.5))
}
