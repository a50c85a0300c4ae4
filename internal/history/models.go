package history

import (
	"database/sql"
	"time"
)

// Status values stored per result.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded batch invocation.
type Run struct {
	ID         string
	Mode       string
	Root       string
	TargetDB   float64
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Copied     int
	Normalized int
	Tagged     int
}

// Finished reports whether FinishRun was recorded for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Elapsed is the recorded wall-clock duration, zero for unfinished runs.
func (r Run) Elapsed() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Record is one file's outcome within a run.
type Record struct {
	RunID    string
	Seq      int
	Path     string
	Output   string
	Status   string
	Branch   string
	Kind     string
	Reason   string
	Measured bool
	// MeasuredLUFS is meaningful only when Measured is set.
	MeasuredLUFS float64
	Level        int
	GainDB       float64
	Tagged       bool
	Duration     time.Duration
	InputBytes   int64
	OutputBytes  int64
}

const runColumns = "id, mode, root, target_db, started_at, finished_at, total, succeeded, failed, copied, normalized, tagged"

const recordColumns = "run_id, seq, path, output, status, branch, kind, reason, measured_lufs, level, gain_db, tagged, duration_ms, input_bytes, output_bytes"

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.Mode,
		&run.Root,
		&run.TargetDB,
		&startedRaw,
		&finishedRaw,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.Copied,
		&run.Normalized,
		&run.Tagged,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return run, nil
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		output     sql.NullString
		branch     sql.NullString
		kind       sql.NullString
		reason     sql.NullString
		measured   sql.NullFloat64
		tagged     int
		durationMS int64
	)
	if err := row.Scan(
		&rec.RunID,
		&rec.Seq,
		&rec.Path,
		&output,
		&rec.Status,
		&branch,
		&kind,
		&reason,
		&measured,
		&rec.Level,
		&rec.GainDB,
		&tagged,
		&durationMS,
		&rec.InputBytes,
		&rec.OutputBytes,
	); err != nil {
		return Record{}, err
	}
	rec.Output = output.String
	rec.Branch = branch.String
	rec.Kind = kind.String
	rec.Reason = reason.String
	rec.Measured = measured.Valid
	rec.MeasuredLUFS = measured.Float64
	rec.Tagged = tagged != 0
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
