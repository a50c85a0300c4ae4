package batch

import (
	"context"
	"log/slog"

	"remaster/internal/logging"
	"remaster/internal/media"
)

// OperationFor returns the per-file operation for mode.
func OperationFor(mode Mode, opts media.Options, tag string) Operation {
	if mode == ModeINI {
		return INIOperation(opts, tag)
	}
	return RemasterOperation(opts, tag)
}

// RemasterOperation opens each file and writes its normalized copy.
func RemasterOperation(opts media.Options, tag string) Operation {
	return func(ctx context.Context, job Job) (Result, error) {
		unit, err := media.Open(ctx, job.Path, opts)
		if err != nil {
			return Result{}, err
		}
		defer closeUnit(opts.Logger, unit)

		res, err := unit.Remaster(ctx, media.RemasterOptions{TargetDB: job.TargetDB, Tag: tag})
		out := unitResult(unit, job.TargetDB)
		out.Output = res.Output
		out.Branch = string(res.Branch)
		out.GainDB = res.GainDB
		out.Tagged = res.Tagged
		if res.TagErr != nil {
			out.Note = res.TagErr.Error()
		}
		if err != nil {
			out.Output = ""
			return out, err
		}
		return out, nil
	}
}

// INIOperation opens each file and writes its companion ini.
func INIOperation(opts media.Options, tag string) Operation {
	return func(ctx context.Context, job Job) (Result, error) {
		unit, err := media.Open(ctx, job.Path, opts)
		if err != nil {
			return Result{}, err
		}
		defer closeUnit(opts.Logger, unit)

		res, err := unit.MameINI(ctx, media.INIOptions{TargetDB: job.TargetDB, Tag: tag})
		out := unitResult(unit, job.TargetDB)
		out.Branch = "ini"
		if err != nil {
			return out, err
		}
		out.Output = res.Output
		return out, nil
	}
}

func unitResult(unit *media.Unit, target float64) Result {
	return Result{
		Measured:     unit.Measurement.Valid,
		MeasuredLUFS: unit.Measurement.Value(),
		Level:        unit.Level(target),
	}
}

func closeUnit(logger *slog.Logger, unit *media.Unit) {
	if err := unit.Close(); err != nil && logger != nil {
		logger.Warn("temp dir cleanup failed", logging.Error(err))
	}
}
