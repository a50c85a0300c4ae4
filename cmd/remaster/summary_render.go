package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"remaster/internal/batch"
)

const reasonWidth = 80

// renderSummary writes the failure table and a line per failure kind, when
// there are failures, then the totals line.
func renderSummary(w io.Writer, s batch.Summary) {
	if failures := s.Failures(); len(failures) > 0 {
		printer := newStatusPrinter(w)
		printer.section("Failed files")
		fmt.Fprintln(w, renderTable(
			[]string{"File", "Kind", "Reason"},
			failureRows(s.Root, failures),
			nil,
			reasonWidth,
		))
		printer.print(kindStatus(s)...)
	}
	fmt.Fprintln(w, summaryLine(s))
}

func failureRows(root string, failures []batch.Outcome) [][]string {
	rows := make([][]string, 0, len(failures))
	for _, o := range failures {
		rows = append(rows, []string{relativeTo(root, o.Job.Path), o.Kind, o.Reason()})
	}
	return rows
}

func summaryLine(s batch.Summary) string {
	line := fmt.Sprintf("%d of %d succeeded", s.Succeeded, s.Total)
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d failed", s.Failed)
	}
	if s.Mode == batch.ModeRemaster {
		line += fmt.Sprintf(" (%d normalized, %d copied, %d tagged)", s.Normalized, s.Copied, s.Tagged)
		if s.InputBytes > 0 || s.OutputBytes > 0 {
			line += fmt.Sprintf("; %s in, %s out",
				humanize.IBytes(uint64(s.InputBytes)),
				humanize.IBytes(uint64(s.OutputBytes)))
		}
	}
	return line + fmt.Sprintf(" in %s", s.Elapsed().Round(time.Millisecond))
}

func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
