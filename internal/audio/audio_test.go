package audio_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"remaster/internal/audio"
	"remaster/internal/testsupport"
)

func TestSniff(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   audio.Format
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), audio.FormatWAV},
		{"avi is not wav", []byte("RIFF\x00\x00\x00\x00AVI "), audio.FormatUnknown},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), audio.FormatFLAC},
		{"id3", []byte("ID3\x04\x00"), audio.FormatMP3},
		{"mpeg frame", []byte{0xFF, 0xFB, 0x90, 0x64}, audio.FormatMP3},
		{"mp4", []byte("\x00\x00\x00\x20ftypisom"), audio.FormatUnknown},
		{"short", []byte("R"), audio.FormatUnknown},
	}
	for _, tc := range cases {
		if got := audio.Sniff(tc.header); got != tc.want {
			t.Errorf("%s: Sniff = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	spec := testsupport.Sine{Seconds: 1, SampleRate: 22050, Channels: 2, Frequency: 440, LUFS: -6}
	want := testsupport.SineBuffer(spec)
	if err := audio.WriteWAV(path, want, 16); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	got, format, err := audio.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if format != audio.FormatWAV {
		t.Fatalf("format = %q", format)
	}
	if got.SampleRate != 22050 || got.NumChannels() != 2 || got.Frames() != want.Frames() {
		t.Fatalf("shape mismatch: rate=%d ch=%d frames=%d", got.SampleRate, got.NumChannels(), got.Frames())
	}
	if d := got.Duration(); d != time.Second {
		t.Fatalf("duration = %v", d)
	}
	for i := 0; i < got.Frames(); i += 97 {
		if diff := math.Abs(got.Channels[1][i] - want.Channels[1][i]); diff > 1.0/32768 {
			t.Fatalf("sample %d differs by %v", i, diff)
		}
	}
}

func TestInterleavedClipsAtFullScale(t *testing.T) {
	buf := audio.NewBuffer(8000, 1, 3)
	buf.Channels[0][0] = 1.5
	buf.Channels[0][1] = -2
	buf.Channels[0][2] = 0.5
	got := buf.Interleaved(16)
	want := []int{32767, -32768, 16384}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Interleaved = %v, want %v", got, want)
		}
	}
}

func TestFromS16LEReshapesFrames(t *testing.T) {
	raw := []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F, 0x00, 0x80, 0x01}
	buf := audio.FromS16LE(raw, 2, 48000)
	if buf.Frames() != 2 || buf.NumChannels() != 2 {
		t.Fatalf("unexpected shape %d x %d", buf.Frames(), buf.NumChannels())
	}
	if buf.Channels[0][0] != 0.5 || buf.Channels[1][0] != -0.5 || buf.Channels[1][1] != -1 {
		t.Fatalf("unexpected samples %v", buf.Channels)
	}
}

func TestFromInterleavedUnsigned8Bit(t *testing.T) {
	buf := audio.FromInterleaved([]int{128, 0, 255}, 1, 8, 8000)
	if buf.Channels[0][0] != 0 || buf.Channels[0][1] != -1 {
		t.Fatalf("unexpected 8-bit conversion %v", buf.Channels[0])
	}
}

func TestDecodeFileRejectsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("\x00\x00\x00\x20ftypisom-not-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := audio.DecodeFile(path); !errors.Is(err, audio.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecodeFileCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("RIFF\x10\x00\x00\x00WAVEjunk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := audio.DecodeFile(path); err == nil {
		t.Fatal("expected error for corrupt wav")
	}
}

func TestWriteWAVRejectsEmpty(t *testing.T) {
	if err := audio.WriteWAV(filepath.Join(t.TempDir(), "x.wav"), audio.NewBuffer(44100, 2, 0), 16); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestCloneIsDeep(t *testing.T) {
	buf := audio.NewBuffer(8000, 1, 2)
	clone := buf.Clone()
	clone.Channels[0][0] = 1
	if buf.Channels[0][0] != 0 {
		t.Fatal("clone shares sample storage")
	}
}
