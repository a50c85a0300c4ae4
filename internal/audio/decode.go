package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// ErrUnsupported reports a file the native decoders do not handle; callers
// fall back to ffmpeg.
var ErrUnsupported = errors.New("unsupported audio format")

// Format identifies a natively decodable container.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
)

const sniffLen = 12

// Sniff classifies a file by its leading bytes.
func Sniff(header []byte) Format {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV
	case len(header) >= 4 && bytes.Equal(header[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")):
		return FormatMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0 && header[1]&0x06 != 0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// DecodeFile decodes a WAV, MP3, or FLAC file into a Buffer. Anything else,
// including compressed or float WAV variants, yields ErrUnsupported.
func DecodeFile(path string) (*Buffer, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FormatUnknown, err
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, FormatUnknown, err
	}
	format := Sniff(header[:n])
	if format == FormatUnknown {
		return nil, format, ErrUnsupported
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, format, err
	}

	var buf *Buffer
	switch format {
	case FormatWAV:
		buf, err = DecodeWAV(f)
	case FormatMP3:
		buf, err = DecodeMP3(f)
	case FormatFLAC:
		buf, err = DecodeFLAC(f)
	}
	if err != nil {
		return nil, format, err
	}
	if buf.Empty() {
		return nil, format, fmt.Errorf("%s: no samples decoded", format)
	}
	return buf, format, nil
}

// DecodeWAV decodes integer PCM WAV data.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: %w", ErrUnsupported)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("wav format %d: %w", dec.WavAudioFormat, ErrUnsupported)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}
	return FromInterleaved(pcm.Data, int(dec.NumChans), int(dec.BitDepth), int(dec.SampleRate)), nil
}

// DecodeMP3 decodes an MPEG-1/2 layer III stream. go-mp3 always produces
// 16-bit stereo.
func DecodeMP3(r io.Reader) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	return FromS16LE(raw, 2, dec.SampleRate()), nil
}

// DecodeFLAC decodes a FLAC stream frame by frame.
func DecodeFLAC(r io.Reader) (*Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("flac decode: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	scale := fullScale(int(stream.Info.BitsPerSample))
	buf := &Buffer{SampleRate: int(stream.Info.SampleRate), Channels: make([][]float64, channels)}
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame: %w", err)
		}
		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, s := range frame.Subframes[ch].Samples {
				buf.Channels[ch] = append(buf.Channels[ch], float64(s)/scale)
			}
		}
	}
	return buf, nil
}
