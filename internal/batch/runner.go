package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"remaster/internal/logging"
	"remaster/internal/services"
	"remaster/internal/textutil"
)

// Operation processes a single job.
type Operation func(ctx context.Context, job Job) (Result, error)

// Runner executes jobs on a bounded worker pool.
type Runner struct {
	Workers int
	// JobTimeout bounds each job; zero disables it.
	JobTimeout time.Duration
	Reporter   Reporter
	Logger     *slog.Logger
}

// Run executes op for every job and returns the aggregated Summary. Job
// failures are recorded, never propagated. Cancelling ctx stops dispatch;
// jobs that never started are recorded as canceled.
func (r *Runner) Run(ctx context.Context, jobs []Job, op Operation) Summary {
	logger := logging.NewComponentLogger(r.Logger, "batch")
	reporter := r.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]Outcome, len(jobs))
	sampler := logging.NewProgressSampler(0)
	var (
		mu        sync.Mutex
		completed int
	)
	finish := func(idx int, o Outcome) {
		outcomes[idx] = o
		mu.Lock()
		defer mu.Unlock()
		completed++
		reporter.Done(o, completed, len(jobs))
		if sampler.ShouldLog(completed, len(jobs)) {
			logging.WithContext(ctx, logger).Info("batch progress",
				logging.String(logging.FieldEventType, "batch_progress"),
				logging.Int("completed", completed),
				logging.Int("total", len(jobs)),
			)
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			finish(i, Outcome{Job: job, Err: err, Kind: classify(err), Started: time.Now()})
			continue
		}
		g.Go(func() error {
			finish(i, r.runJob(ctx, logger, job, op))
			return nil
		})
	}
	_ = g.Wait()

	return newSummary(outcomes)
}

func (r *Runner) runJob(ctx context.Context, logger *slog.Logger, job Job, op Operation) (outcome Outcome) {
	outcome = Outcome{Job: job, Started: time.Now()}
	if info, err := os.Stat(job.Path); err == nil {
		outcome.InputBytes = info.Size()
	}

	jobCtx := services.WithFile(ctx, textutil.DisplayName(job.Path))
	if r.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, r.JobTimeout)
		defer cancel()
	}
	jobLogger := logging.WithContext(jobCtx, logger)
	jobLogger.Debug("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("path", job.Path),
	)

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Err = services.Wrap(services.ErrInternal, "batch", "job panic", fmt.Sprint(rec), nil)
			outcome.Kind = services.KindInternal
			jobLogger.Error("job panicked",
				logging.String(logging.FieldEventType, "job_panic"),
				logging.String("stack", string(debug.Stack())),
			)
		}
		outcome.Duration = time.Since(outcome.Started)
	}()

	result, err := op(jobCtx, job)
	outcome.Result = result
	if err != nil {
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = services.Wrap(services.ErrTimeout, "batch", "job timeout", r.JobTimeout.String(), err)
		}
		outcome.Err = err
		outcome.Kind = classify(err)
		logging.ErrorWithContext(jobLogger, "job failed", "job_failure",
			logging.String("error_kind", outcome.Kind),
			logging.Alert("job_failure"),
			logging.Error(err),
		)
		return outcome
	}
	if result.Output != "" {
		if info, statErr := os.Stat(result.Output); statErr == nil {
			outcome.OutputBytes = info.Size()
		}
	}
	jobLogger.Debug("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", result.Output),
		logging.Duration("job_duration", time.Since(outcome.Started)),
	)
	return outcome
}
