package batch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"remaster/internal/config"
	"remaster/internal/logging"
	"remaster/internal/media"
	"remaster/internal/services"
)

// Request describes one batch invocation.
type Request struct {
	Mode     Mode
	Root     string
	TargetDB float64
	// Tag is stamped on outputs and encoded in ini files; empty disables it.
	Tag string
}

// Recorder persists runs. history.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, s Summary) error
	FinishRun(ctx context.Context, s Summary) error
}

// Deps carries collaborators for Execute. Zero values fall back to
// configuration-driven defaults.
type Deps struct {
	Media     media.Options
	Reporter  Reporter
	Recorder  Recorder
	Operation Operation
	// LockDir enables the per-root run lock when set.
	LockDir string
	Logger  *slog.Logger
}

// Execute plans and runs a batch. The returned error covers problems that
// prevent the batch from running; job failures are reported in the Summary.
func Execute(ctx context.Context, cfg *config.Config, req Request, deps Deps) (Summary, error) {
	logger := logging.NewComponentLogger(deps.Logger, "batch")
	if err := config.ValidateTarget(req.TargetDB); err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, "batch", "target", "", err)
	}
	info, err := os.Stat(req.Root)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrFilesystem, "batch", "stat root", req.Root, err)
	}
	if !info.IsDir() {
		return Summary{}, services.Wrap(services.ErrValidation, "batch", "root", req.Root+" is not a directory", nil)
	}

	if deps.LockDir != "" {
		lock, err := AcquireLock(deps.LockDir, req.Root)
		if err != nil {
			return Summary{}, services.Wrap(services.ErrConfiguration, "batch", "lock", req.Root, err)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	jobs, err := Plan(req.Root, req.TargetDB, req.Mode.Extensions(cfg), logger)
	if err != nil {
		return Summary{}, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	runLogger := logging.WithContext(ctx, logger)
	started := time.Now()
	header := Summary{
		RunID:    runID,
		Mode:     req.Mode,
		Root:     req.Root,
		TargetDB: req.TargetDB,
		Started:  started,
		Total:    len(jobs),
	}
	if deps.Recorder != nil {
		if err := deps.Recorder.BeginRun(ctx, header); err != nil {
			logging.WarnWithContext(runLogger, "history unavailable", "history_begin_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run is not recorded"),
			)
			deps.Recorder = nil
		}
	}

	op := deps.Operation
	if op == nil {
		mediaOpts := deps.Media
		if mediaOpts.Logger == nil {
			mediaOpts.Logger = deps.Logger
		}
		op = OperationFor(req.Mode, mediaOpts, req.Tag)
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	runLogger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("mode", string(req.Mode)),
		logging.String("root", req.Root),
		logging.Float64("target_db", req.TargetDB),
		logging.Int("files", len(jobs)),
		logging.Int("workers", cfg.WorkerCount()),
	)
	reporter.Start(req.Mode, len(jobs))
	runner := &Runner{
		Workers:    cfg.WorkerCount(),
		JobTimeout: time.Duration(cfg.Batch.JobTimeoutSeconds) * time.Second,
		Reporter:   reporter,
		Logger:     deps.Logger,
	}
	summary := runner.Run(ctx, jobs, op)
	summary.RunID = header.RunID
	summary.Mode = header.Mode
	summary.Root = header.Root
	summary.TargetDB = header.TargetDB
	summary.Started = started
	summary.Finished = time.Now()
	reporter.Finish(summary)

	if deps.Recorder != nil {
		// The run is recorded even when ctx was interrupted.
		if err := deps.Recorder.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
			logging.WarnWithContext(runLogger, "failed to record run", "history_finish_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run results missing from history"),
			)
		}
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("copied", summary.Copied),
		logging.Int("normalized", summary.Normalized),
		logging.Duration("elapsed", summary.Elapsed()),
	}
	if summary.Failed > 0 {
		runLogger.Warn("batch finished with failures", logging.Args(attrs...)...)
	} else {
		runLogger.Info("batch finished", logging.Args(attrs...)...)
	}
	return summary, nil
}
