package batch

import (
	"errors"
	"fmt"
	"time"

	"remaster/internal/services"
)

// Result is what an Operation reports for a finished job.
type Result struct {
	Output string
	// Branch is "copied", "normalized", or "ini".
	Branch       string
	Measured     bool
	MeasuredLUFS float64
	Level        int
	GainDB       float64
	Tagged       bool
	// Note carries a non-fatal problem, such as a swallowed tag failure.
	Note string
}

// Outcome is the recorded fate of one job.
type Outcome struct {
	Job         Job
	Result      Result
	Err         error
	Kind        string
	Started     time.Time
	Duration    time.Duration
	InputBytes  int64
	OutputBytes int64
}

// Failed reports whether the job did not produce its output.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Reason is the failure message, or the note for successful jobs.
func (o Outcome) Reason() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Result.Note
}

// Summary aggregates a batch run.
type Summary struct {
	RunID      string
	Mode       Mode
	Root       string
	TargetDB   float64
	Started    time.Time
	Finished   time.Time
	Total      int
	Succeeded  int
	Failed     int
	Copied     int
	Normalized int
	Tagged     int
	ByKind     map[string]int
	Outcomes   []Outcome
	// InputBytes and OutputBytes total successful jobs only.
	InputBytes  int64
	OutputBytes int64
}

func newSummary(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes), ByKind: map[string]int{}, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Failed() {
			s.Failed++
			s.ByKind[o.Kind]++
			continue
		}
		s.Succeeded++
		s.InputBytes += o.InputBytes
		s.OutputBytes += o.OutputBytes
		switch o.Result.Branch {
		case "copied":
			s.Copied++
		case "normalized":
			s.Normalized++
		}
		if o.Result.Tagged {
			s.Tagged++
		}
	}
	return s
}

// Failures returns the failed outcomes in job order.
func (s Summary) Failures() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Elapsed is the wall-clock duration of the run.
func (s Summary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// ExitCode is 0 when every job succeeded, 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// ErrJobsFailed marks a run with at least one failed job.
var ErrJobsFailed = errors.New("batch jobs failed")

// Err returns ErrJobsFailed with the failure count, or nil.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", ErrJobsFailed, s.Failed, s.Total)
}

func classify(err error) string {
	if err == nil {
		return services.KindNone
	}
	return services.Kind(err)
}
