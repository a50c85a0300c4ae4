package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"remaster/internal/audio"
	"remaster/internal/extract"
	"remaster/internal/logging"
	"remaster/internal/loudness"
	"remaster/internal/services"
	"remaster/internal/textutil"
)

// Unit is one media file opened for processing.
type Unit struct {
	Path string
	// Name is the NFC-normalized base name used in logs.
	Name        string
	Measurement loudness.Measurement
	// MeasureErr explains an absent measurement when samples exist.
	MeasureErr error
	// Samples is nil when the file has no extractable audio.
	Samples    *audio.Buffer
	Extraction extract.Result

	tempDir   string
	opts      Options
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Open extracts and measures path. The returned Unit owns a temp directory
// until Close.
func Open(ctx context.Context, path string, opts Options) (*Unit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "open", "stat", path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "open", "stat", path+" is a directory", nil)
	}

	opts = opts.withDefaults()
	u := &Unit{
		Path:        path,
		Name:        textutil.DisplayName(path),
		Measurement: loudness.Absent(),
		opts:        opts,
	}
	ctx = services.WithFile(ctx, u.Name)
	u.logger = logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "media"))

	tempDir, err := os.MkdirTemp(opts.TempRoot, "remaster-")
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "open", "temp dir", "", err)
	}
	u.tempDir = tempDir

	u.Extraction = extract.Extract(ctx, path, tempDir, extract.Options{
		FFmpegBinary:  opts.FFmpegBinary,
		FFprobeBinary: opts.FFprobeBinary,
		Runner:        opts.Runner,
		Probe:         opts.Probe,
		Logger:        u.logger,
	})
	if err := ctx.Err(); err != nil {
		_ = u.Close()
		return nil, err
	}
	if !u.Extraction.HasAudio() {
		u.logger.Info("no usable audio",
			logging.String("reason_kind", u.Extraction.Kind),
			logging.Error(u.Extraction.Err),
		)
		return u, nil
	}
	u.Samples = u.Extraction.Buffer

	meter := opts.Meter
	if ffm, ok := meter.(*loudness.FFmpegMeter); ok {
		scoped := *ffm
		scoped.TempDir = tempDir
		meter = &scoped
	}
	m, err := loudness.Measure(ctx, meter, u.Samples)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = u.Close()
			return nil, ctxErr
		}
		u.MeasureErr = err
		logging.WarnWithContext(u.logger, "loudness could not be measured", "loudness_unmeasured",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "file is copied unchanged and its ini level is 0"),
			logging.String(logging.FieldImpact, "output keeps the source loudness"),
		)
		return u, nil
	}
	u.Measurement = m
	u.logger.Debug("loudness measured",
		logging.Float64("measured_lufs", m.LUFS),
		logging.String("source", u.Extraction.Source),
		logging.Int("sample_rate", u.Samples.SampleRate),
		logging.Int("channels", u.Samples.NumChannels()),
		logging.Duration("duration", u.Samples.Duration()),
	)
	return u, nil
}

// Close removes the temp directory. It is safe to call more than once.
func (u *Unit) Close() error {
	if u == nil {
		return nil
	}
	u.closeOnce.Do(func() {
		if u.tempDir == "" {
			return
		}
		if err := os.RemoveAll(u.tempDir); err != nil && !errors.Is(err, os.ErrNotExist) {
			u.closeErr = services.Wrap(services.ErrFilesystem, "close", "remove temp dir", u.tempDir, err)
		}
	})
	return u.closeErr
}

// TempDir returns the unit's scoped scratch directory.
func (u *Unit) TempDir() string {
	return u.tempDir
}

// HasAudio reports whether samples were extracted.
func (u *Unit) HasAudio() bool {
	return u.Samples != nil && !u.Samples.Empty()
}

// Difference is target minus the measured loudness; 0 when unmeasured.
func (u *Unit) Difference(target float64, rounded bool) float64 {
	return loudness.Difference(u.Measurement, target, rounded)
}

// Level is the rounded Difference used in ini files.
func (u *Unit) Level(target float64) int {
	return loudness.Level(u.Measurement, target)
}
