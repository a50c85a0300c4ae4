package media

import (
	"context"
	"os"
	"path/filepath"

	"remaster/internal/audio"
	"remaster/internal/fileutil"
	"remaster/internal/logging"
	"remaster/internal/loudness"
	"remaster/internal/services"
	"remaster/internal/textutil"
	"remaster/internal/transcode"
)

const (
	normalizedWAV = "remaster.wav"
	encodedAudio  = "remaster"
	stageRemaster = "remaster"
	stageCopy     = "copy"
	stageEncode   = "encode"
	stageRemux    = "remux"
)

// Remaster writes the normalized output and returns where it went.
// Without a usable measurement the source is copied byte for byte.
func (u *Unit) Remaster(ctx context.Context, opts RemasterOptions) (RemasterResult, error) {
	out := opts.Output
	if out == "" {
		out = textutil.MediaOutputPath(u.Path, opts.TargetDB)
	}
	result := RemasterResult{Output: out}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return result, services.Wrap(services.ErrFilesystem, stageRemaster, "create output dir", filepath.Dir(out), err)
	}

	if !u.HasAudio() || !u.Measurement.Valid {
		if err := fileutil.CopyFileVerified(u.Path, out); err != nil {
			return result, services.Wrap(services.ErrFilesystem, stageCopy, "copy source", u.Name, err)
		}
		result.Branch = BranchCopied
		u.logger.Info("copied without normalization", logging.String("output", out))
		return result, nil
	}

	normalized, stats := loudness.Normalize(u.Samples, u.Measurement.LUFS, opts.TargetDB)
	result.GainDB = stats.GainDB
	result.Clipped = stats.Clipped
	if stats.Clipped > 0 {
		logging.WarnWithContext(u.logger, "normalization clipped samples", "normalize_clipped",
			logging.Int("clipped_samples", stats.Clipped),
			logging.Float64("gain_db", stats.GainDB),
			logging.String(logging.FieldErrorHint, "lower the target or accept limited peaks"),
			logging.String(logging.FieldImpact, "peaks are limited at full scale"),
		)
	}

	wavPath := filepath.Join(u.tempDir, normalizedWAV)
	if err := audio.WriteWAV(wavPath, normalized, audio.DefaultBitDepth); err != nil {
		return result, services.Wrap(services.ErrFilesystem, stageEncode, "write wav", u.Name, err)
	}

	encoded := filepath.Join(u.tempDir, encodedAudio+u.opts.AudioExt)
	encodeCmd := transcode.BuildEncodeAudio(u.opts.FFmpegBinary, wavPath, encoded, u.opts.Profile)
	if _, err := u.opts.Runner.Run(services.WithStage(ctx, stageEncode), encodeCmd); err != nil {
		return result, services.Wrap(services.ErrTranscode, stageEncode, "ffmpeg", u.Name, err)
	}

	staged := stagingPath(out)
	remuxCmd := transcode.BuildRemux(u.opts.FFmpegBinary, u.Path, encoded, staged)
	if _, err := u.opts.Runner.Run(services.WithStage(ctx, stageRemux), remuxCmd); err != nil {
		_ = os.Remove(staged)
		return result, services.Wrap(services.ErrTranscode, stageRemux, "ffmpeg", u.Name, err)
	}
	if err := os.Rename(staged, out); err != nil {
		_ = os.Remove(staged)
		return result, services.Wrap(services.ErrFilesystem, stageRemux, "replace output", out, err)
	}
	result.Branch = BranchNormalized

	if opts.Tag != "" {
		if err := u.opts.Tagger.Stamp(ctx, out, opts.Tag); err != nil {
			result.TagErr = err
			logging.WarnWithContext(u.logger, "tag not written", "tag_write_failed",
				logging.Error(err),
				logging.String("output", out),
				logging.String(logging.FieldImpact, "output is valid but untagged"),
			)
		} else {
			result.Tagged = true
		}
	}

	u.logger.Info("remastered",
		logging.Float64("measured_lufs", u.Measurement.LUFS),
		logging.Float64("gain_db", stats.GainDB),
		logging.Bool("tagged", result.Tagged),
		logging.String("output", out),
	)
	return result, nil
}

// stagingPath is a hidden sibling of out with the same extension so ffmpeg
// picks the right muxer.
func stagingPath(out string) string {
	return filepath.Join(filepath.Dir(out), "."+textutil.Stem(out)+".remux"+filepath.Ext(out))
}
