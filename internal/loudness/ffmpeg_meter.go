package loudness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"remaster/internal/audio"
	"remaster/internal/logging"
	"remaster/internal/transcode"
)

// FFmpegMeter measures loudness with ffmpeg's loudnorm analysis pass.
type FFmpegMeter struct {
	Binary string
	Runner transcode.Runner
	// TempDir holds the intermediate WAV; empty uses the system default.
	TempDir string
	Logger  *slog.Logger
}

// Integrated implements Meter.
func (m *FFmpegMeter) Integrated(ctx context.Context, buf *audio.Buffer) (float64, error) {
	if buf == nil || buf.Empty() {
		return 0, ErrSilent
	}
	if buf.Duration().Seconds() < blockSeconds {
		return 0, ErrTooShort
	}
	runner := m.Runner
	if runner == nil {
		runner = transcode.NewExecutor(m.Logger)
	}

	dir, err := os.MkdirTemp(m.TempDir, "meter-")
	if err != nil {
		return 0, fmt.Errorf("loudness meter temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && m.Logger != nil {
			m.Logger.Debug("meter temp cleanup failed", logging.Error(rmErr))
		}
	}()

	wavPath := filepath.Join(dir, "measure.wav")
	if err := audio.WriteWAV(wavPath, buf, audio.DefaultBitDepth); err != nil {
		return 0, err
	}
	result, err := runner.Run(ctx, transcode.BuildLoudnessScan(m.Binary, wavPath))
	if err != nil {
		return 0, err
	}
	return ParseLoudnormReport(result.Stderr)
}

type loudnormReport struct {
	InputI string `json:"input_i"`
}

// ParseLoudnormReport extracts input_i from the last JSON object ffmpeg's
// loudnorm filter prints on stderr.
func ParseLoudnormReport(stderr string) (float64, error) {
	end := strings.LastIndex(stderr, "}")
	if end < 0 {
		return 0, errors.New("loudnorm report not found in ffmpeg output")
	}
	start := strings.LastIndex(stderr[:end], "{")
	if start < 0 {
		return 0, errors.New("loudnorm report not found in ffmpeg output")
	}
	var report loudnormReport
	if err := json.Unmarshal([]byte(stderr[start:end+1]), &report); err != nil {
		return 0, fmt.Errorf("parse loudnorm report: %w", err)
	}
	value := strings.TrimSpace(report.InputI)
	if strings.EqualFold(value, "-inf") {
		return 0, ErrSilent
	}
	lufs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse loudnorm input_i %q: %w", report.InputI, err)
	}
	if lufs <= absoluteGate {
		return 0, ErrSilent
	}
	return lufs, nil
}
