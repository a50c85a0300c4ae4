package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultBitDepth is the PCM depth of intermediate WAV files.
const DefaultBitDepth = 16

const wavFormatPCM = 1

// WriteWAV writes the buffer as integer PCM at its own sample rate.
// Samples beyond full scale are clipped.
func WriteWAV(path string, b *Buffer, bitDepth int) (err error) {
	if b.Empty() {
		return errors.New("write wav: empty buffer")
	}
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write wav: %w", cerr)
		}
	}()

	enc := wav.NewEncoder(f, b.SampleRate, bitDepth, b.NumChannels(), wavFormatPCM)
	if err := enc.Write(intBuffer(b, bitDepth)); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

// intBuffer adapts a Buffer to the go-audio representation used by the WAV encoder.
func intBuffer(b *Buffer, bitDepth int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: b.NumChannels(), SampleRate: b.SampleRate},
		Data:           b.Interleaved(bitDepth),
		SourceBitDepth: bitDepth,
	}
}
