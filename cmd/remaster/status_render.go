package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"

	"remaster/internal/batch"
	"remaster/internal/config"
	"remaster/internal/history"
	"remaster/internal/preflight"
	"remaster/internal/services"
	"remaster/internal/textutil"
)

// statusLevel grades one line of `remaster check` or a batch summary.
type statusLevel uint8

const (
	levelInfo statusLevel = iota
	levelOK
	levelWarn
	levelFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var levelStyles = [...]struct{ tag, color string }{
	levelInfo: {"INFO", ansiBlue},
	levelOK:   {"OK", ansiGreen},
	levelWarn: {"WARN", ansiYellow},
	levelFail: {"FAIL", ansiRed},
}

const labelWidth = 18

// statusLine is a labelled verdict such as "FFmpeg: [OK] /usr/bin/ffmpeg".
type statusLine struct {
	Label  string
	Level  statusLevel
	Detail string
}

func (s statusLine) render(colorize bool) string {
	style := levelStyles[s.Level]
	text := fmt.Sprintf("  %-*s [%s]", labelWidth, s.Label+":", style.tag)
	if s.Detail != "" {
		text += " " + s.Detail
	}
	if colorize {
		return style.color + text + ansiReset
	}
	return text
}

// statusPrinter writes sections of status lines, colored on terminals.
type statusPrinter struct {
	w     io.Writer
	color bool
}

func newStatusPrinter(w io.Writer) *statusPrinter {
	return &statusPrinter{w: w, color: shouldColorize(w)}
}

func (p *statusPrinter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if p.color {
		heading, rule = ansiBlue+heading+ansiReset, ansiBlue+rule+ansiReset
	}
	fmt.Fprintln(p.w, heading)
	fmt.Fprintln(p.w, rule)
}

func (p *statusPrinter) print(lines ...statusLine) {
	for _, line := range lines {
		fmt.Fprintln(p.w, line.render(p.color))
	}
}

func preflightStatus(results []preflight.Result) []statusLine {
	lines := make([]statusLine, 0, len(results))
	for _, r := range results {
		lines = append(lines, statusLine{
			Label:  r.Name,
			Level:  textutil.Ternary(r.Passed, levelOK, levelFail),
			Detail: r.Detail,
		})
	}
	return lines
}

// historyStatus reports where runs are recorded and the most recent one. A
// ledger that cannot be opened is a warning because batches still run.
func historyStatus(ctx context.Context, cfg *config.Config) statusLine {
	line := statusLine{Label: "History"}
	store, err := history.OpenConfig(cfg)
	switch {
	case errors.Is(err, history.ErrDisabled):
		line.Level, line.Detail = levelWarn, "disabled; runs are not recorded"
		return line
	case err != nil:
		line.Level, line.Detail = levelWarn, fmt.Sprintf("%s (unavailable: %v)", cfg.History.Path, err)
		return line
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, "", 1)
	switch {
	case err != nil:
		line.Level, line.Detail = levelWarn, fmt.Sprintf("%s (unreadable: %v)", store.Path(), err)
	case len(runs) == 0:
		line.Level, line.Detail = levelOK, store.Path()+" (no runs yet)"
	default:
		last := runs[0]
		line.Level = levelOK
		line.Detail = fmt.Sprintf("%s (last: %s %s, %d of %d succeeded)",
			store.Path(), last.Mode, shortID(last.ID), last.Succeeded, last.Total)
	}
	return line
}

// kindStatus grades each failure kind of a run, most frequent first. Canceled
// jobs are warnings since a rerun picks them up.
func kindStatus(s batch.Summary) []statusLine {
	kinds := make([]string, 0, len(s.ByKind))
	for kind := range s.ByKind {
		kinds = append(kinds, kind)
	}
	slices.SortFunc(kinds, func(a, b string) int {
		if d := s.ByKind[b] - s.ByKind[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	lines := make([]statusLine, 0, len(kinds))
	for _, kind := range kinds {
		lines = append(lines, statusLine{
			Label:  kind,
			Level:  textutil.Ternary(kind == services.KindCanceled, levelWarn, levelFail),
			Detail: fmt.Sprintf("%d of %d files", s.ByKind[kind], s.Total),
		})
	}
	return lines
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
