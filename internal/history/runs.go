package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remaster/internal/batch"
)

var (
	// ErrNotFound is returned when no run matches an id or prefix.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an id prefix matches more than one run.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// BeginRun records the start of a batch.
func (s *Store) BeginRun(ctx context.Context, summary batch.Summary) error {
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, mode, root, target_db, started_at, total)
         VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		string(summary.Mode),
		summary.Root,
		summary.TargetDB,
		formatTime(summary.Started),
		summary.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the totals and every outcome of a completed batch. It
// inserts the run row when BeginRun was never called for it.
func (s *Store) FinishRun(ctx context.Context, summary batch.Summary) error {
	if summary.RunID == "" {
		return errors.New("finish run: missing run id")
	}
	return retryOnBusy(ctx, func() error {
		return s.finishRunTx(ctx, summary)
	})
}

func (s *Store) finishRunTx(ctx context.Context, summary batch.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, root, target_db, started_at, finished_at, total, succeeded, failed, copied, normalized, tagged)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            finished_at = excluded.finished_at,
            total = excluded.total,
            succeeded = excluded.succeeded,
            failed = excluded.failed,
            copied = excluded.copied,
            normalized = excluded.normalized,
            tagged = excluded.tagged`,
		summary.RunID,
		string(summary.Mode),
		summary.Root,
		summary.TargetDB,
		formatTime(summary.Started),
		formatTime(summary.Finished),
		summary.Total,
		summary.Succeeded,
		summary.Failed,
		summary.Copied,
		summary.Normalized,
		summary.Tagged,
	); err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE run_id = ?", summary.RunID); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO results ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, outcome := range summary.Outcomes {
		rec := recordFromOutcome(summary.RunID, i, outcome)
		var measured any
		if rec.Measured {
			measured = rec.MeasuredLUFS
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RunID,
			rec.Seq,
			rec.Path,
			nullableString(rec.Output),
			rec.Status,
			nullableString(rec.Branch),
			nullableString(rec.Kind),
			nullableString(rec.Reason),
			measured,
			rec.Level,
			rec.GainDB,
			boolInt(rec.Tagged),
			rec.Duration.Milliseconds(),
			rec.InputBytes,
			rec.OutputBytes,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func recordFromOutcome(runID string, seq int, o batch.Outcome) Record {
	rec := Record{
		RunID:        runID,
		Seq:          seq,
		Path:         o.Job.Path,
		Status:       StatusSucceeded,
		Kind:         o.Kind,
		Reason:       o.Reason(),
		Measured:     o.Result.Measured,
		MeasuredLUFS: o.Result.MeasuredLUFS,
		Duration:     o.Duration,
		InputBytes:   o.InputBytes,
	}
	if o.Failed() {
		rec.Status = StatusFailed
		return rec
	}
	rec.Output = o.Result.Output
	rec.Branch = o.Result.Branch
	rec.Level = o.Result.Level
	rec.GainDB = o.Result.GainDB
	rec.Tagged = o.Result.Tagged
	rec.OutputBytes = o.OutputBytes
	return rec
}

// ListRuns returns the most recent runs first, restricted to mode when it is
// non-empty. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, mode batch.Mode, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if mode != "" {
		query += " WHERE mode = ?"
		args = append(args, string(mode))
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run id or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (Run, error) {
	needle := strings.TrimSpace(idOrPrefix)
	if needle == "" {
		return Run{}, ErrNotFound
	}
	pattern := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(needle) + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`,
		pattern,
	)
	if err != nil {
		return Run{}, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
		if run.ID == needle {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, needle)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguous, needle)
	}
}

// Results returns the outcomes of a run in job order.
func (s *Store) Results(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM results WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes all but the keep most recent runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		const stale = "SELECT id FROM runs ORDER BY started_at DESC LIMIT -1 OFFSET ?"
		if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE run_id IN ("+stale+")", keep); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id IN ("+stale+")", keep)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(removed), nil
}

var _ batch.Recorder = (*Store)(nil)
