package batch

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// DoneMarker is printed after the last job.
const DoneMarker = "All Done!"

// Reporter receives batch progress. Done calls are serialized by the Runner.
type Reporter interface {
	Start(mode Mode, total int)
	Done(o Outcome, completed, total int)
	Finish(s Summary)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Start(Mode, int)        {}
func (NopReporter) Done(Outcome, int, int) {}
func (NopReporter) Finish(Summary)         {}

// LineReporter prints the announcement, one line per produced output, and
// the done marker.
type LineReporter struct {
	Out io.Writer
	mu  sync.Mutex
}

// NewLineReporter writes to out, or stdout when out is nil.
func NewLineReporter(out io.Writer) *LineReporter {
	if out == nil {
		out = os.Stdout
	}
	return &LineReporter{Out: out}
}

func (r *LineReporter) Start(mode Mode, total int) {
	r.println(mode.Announcement(total))
}

func (r *LineReporter) Done(o Outcome, _, _ int) {
	if o.Failed() || o.Result.Output == "" {
		return
	}
	r.println(o.Result.Output)
}

func (r *LineReporter) Finish(Summary) {
	r.println(DoneMarker)
}

func (r *LineReporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, line)
}

// BarReporter draws a progress bar, normally on stderr.
type BarReporter struct {
	Out io.Writer
	bar *progressbar.ProgressBar
}

// NewBarReporter returns a bar drawing to out.
func NewBarReporter(out io.Writer) *BarReporter {
	return &BarReporter{Out: out}
}

func (r *BarReporter) Start(mode Mode, total int) {
	description := "remastering"
	if mode == ModeINI {
		description = "writing ini"
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Done(Outcome, int, int) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *BarReporter) Finish(Summary) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// MultiReporter fans progress out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Start(mode Mode, total int) {
	for _, r := range m {
		r.Start(mode, total)
	}
}

func (m MultiReporter) Done(o Outcome, completed, total int) {
	for _, r := range m {
		r.Done(o, completed, total)
	}
}

func (m MultiReporter) Finish(s Summary) {
	for _, r := range m {
		r.Finish(s)
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// DefaultReporter prints lines to stdout and, when enabled and stderr is a
// terminal, a progress bar on stderr.
func DefaultReporter(stdout io.Writer, stderr *os.File, progressBar bool) Reporter {
	lines := NewLineReporter(stdout)
	if progressBar && IsTerminal(stderr) {
		return MultiReporter{lines, NewBarReporter(stderr)}
	}
	return lines
}
