package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"remaster/internal/fileutil"
	"remaster/internal/logging"
	"remaster/internal/services"
)

// Result holds the outcome of a single ffmpeg invocation.
type Result struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Runner executes built commands. Tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a command that ran but failed.
type ExitError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if len(stderr) > 400 {
		stderr = stderr[len(stderr)-400:]
	}
	if stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command.Binary, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command.Binary, e.ExitCode, stderr)
}

// Unwrap exposes both the transcode marker and the underlying exec error.
func (e *ExitError) Unwrap() []error {
	return []error{services.ErrTranscode, e.Err}
}

// Executor runs commands with exec.CommandContext, capturing stdout and
// stderr. Cancelling the context kills the child process.
type Executor struct {
	Logger *slog.Logger
}

// NewExecutor returns an Executor logging under the transcode component.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{Logger: logging.NewComponentLogger(logger, "transcode")}
}

// Run executes cmd. A non-zero exit yields *ExitError. When cmd names an
// Output, the file must exist and be non-empty afterwards.
func (e *Executor) Run(ctx context.Context, cmd Command) (Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	start := time.Now()
	proc := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	logger.DebugContext(ctx, "running ffmpeg", logging.String("command", cmd.String()))
	err := proc.Run()
	result := Result{Stdout: stdout.Bytes(), Stderr: stderr.String(), Duration: time.Since(start)}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", cmd.Binary, ctxErr)
		}
		exitErr := &ExitError{Command: cmd, ExitCode: -1, Stderr: result.Stderr, Err: err}
		var procErr *exec.ExitError
		if errors.As(err, &procErr) {
			exitErr.ExitCode = procErr.ExitCode()
		}
		return result, exitErr
	}
	if err := checkOutput(cmd); err != nil {
		return result, err
	}
	logger.DebugContext(ctx, "ffmpeg finished", logging.Duration("elapsed", result.Duration))
	return result, nil
}

func checkOutput(cmd Command) error {
	if cmd.Output == "" || fileutil.NonEmpty(cmd.Output) {
		return nil
	}
	return services.Wrap(services.ErrTranscode, "transcode", cmd.Binary, "missing or empty output "+cmd.Output, nil)
}
