package loudness

import (
	"context"
	"errors"
	"log/slog"

	"remaster/internal/audio"
	"remaster/internal/config"
	"remaster/internal/transcode"
)

var (
	// ErrTooShort reports a buffer shorter than one gating block.
	ErrTooShort = errors.New("audio shorter than one 400 ms block")
	// ErrSilent reports audio where no block passes the gates.
	ErrSilent = errors.New("audio is silent")
)

// Meter returns the integrated loudness of a buffer in LUFS.
type Meter interface {
	Integrated(ctx context.Context, buf *audio.Buffer) (float64, error)
}

// MeterFunc adapts a function to the Meter interface.
type MeterFunc func(ctx context.Context, buf *audio.Buffer) (float64, error)

// Integrated calls f.
func (f MeterFunc) Integrated(ctx context.Context, buf *audio.Buffer) (float64, error) {
	return f(ctx, buf)
}

// NewMeter selects the meter named by [loudness] meter.
func NewMeter(cfg *config.Config, runner transcode.Runner, logger *slog.Logger) Meter {
	if cfg != nil && cfg.Loudness.Meter == config.MeterFFmpeg {
		return &FFmpegMeter{
			Binary: cfg.Encoding.FFmpegBinary,
			Runner: runner,
			Logger: logger,
		}
	}
	return BS1770Meter{}
}

// Measure runs meter over buf and folds failures into an absent
// measurement. The returned error explains why the measurement is absent.
func Measure(ctx context.Context, meter Meter, buf *audio.Buffer) (Measurement, error) {
	if buf == nil || buf.Empty() {
		return Absent(), ErrSilent
	}
	if meter == nil {
		meter = BS1770Meter{}
	}
	lufs, err := meter.Integrated(ctx, buf)
	if err != nil {
		return Absent(), err
	}
	return Measured(lufs), nil
}
