package testsupport

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"remaster/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Sine describes a synthetic test tone.
type Sine struct {
	Seconds    float64
	SampleRate int
	Channels   int
	Frequency  float64
	// LUFS is the integrated loudness the tone should measure at. For a
	// 997 Hz tone on every channel of a stereo pair this is 20*log10(peak).
	LUFS float64
}

// DefaultSine is a 10 second 44.1 kHz stereo 997 Hz tone at -30 LUFS.
func DefaultSine() Sine {
	return Sine{Seconds: 10, SampleRate: 44100, Channels: 2, Frequency: 997, LUFS: -30}
}

// SineBuffer synthesizes the tone in memory.
func SineBuffer(sine Sine) *audio.Buffer {
	if sine.SampleRate <= 0 {
		sine.SampleRate = 44100
	}
	if sine.Channels <= 0 {
		sine.Channels = 2
	}
	if sine.Frequency <= 0 {
		sine.Frequency = 997
	}
	frames := int(sine.Seconds * float64(sine.SampleRate))
	buf := audio.NewBuffer(sine.SampleRate, sine.Channels, frames)
	peak := math.Pow(10, sine.LUFS/20)
	for i := 0; i < frames; i++ {
		v := peak * math.Sin(2*math.Pi*sine.Frequency*float64(i)/float64(sine.SampleRate))
		for ch := range buf.Channels {
			buf.Channels[ch][i] = v
		}
	}
	return buf
}

// WriteSineWAV writes the tone as a 16-bit WAV file.
func WriteSineWAV(t testing.TB, path string, sine Sine) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := audio.WriteWAV(path, SineBuffer(sine), 16); err != nil {
		t.Fatalf("write sine wav %s: %v", path, err)
	}
}

// RequireFFmpeg skips the test unless real ffmpeg and ffprobe binaries are on PATH.
func RequireFFmpeg(t testing.TB) {
	t.Helper()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}
}

// WriteVideo renders a short black test clip with ffmpeg. When withTone is
// set a 997 Hz stereo tone at the given loudness is muxed in; otherwise the
// clip has no audio track. Callers must RequireFFmpeg first.
func WriteVideo(t testing.TB, path string, seconds float64, withTone bool, lufs float64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	dur := strconv.FormatFloat(seconds, 'f', -1, 64)
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:r=10:d=" + dur}
	if withTone {
		wav := filepath.Join(t.TempDir(), "tone.wav")
		WriteSineWAV(t, wav, Sine{Seconds: seconds, SampleRate: 44100, Channels: 2, Frequency: 997, LUFS: lufs})
		args = append(args, "-i", wav, "-c:a", "libmp3lame", "-b:a", "192k", "-shortest")
	}
	args = append(args, "-c:v", "mpeg4", path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if out, err := exec.CommandContext(ctx, "ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture %s: %v: %s", path, err, out)
	}
}
