package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"remaster/internal/batch"
	"remaster/internal/history"
	"remaster/internal/textutil"
)

const displayTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded batch runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.OpenConfig(cfg)
	if errors.Is(err, history.ErrDisabled) {
		return errors.New("history is disabled (history.enabled = false)")
	}
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		modeFlag string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode batch.Mode
			if modeFlag != "" {
				parsed, err := batch.ParseMode(modeFlag)
				if err != nil {
					return err
				}
				mode = parsed
			}
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), mode, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format(displayTimeLayout),
						run.Mode,
						textutil.NamespaceDir(run.TargetDB),
						strconv.Itoa(run.Total),
						strconv.Itoa(run.Failed),
						runElapsed(run),
						run.Root,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Mode", "Target", "Files", "Failed", "Elapsed", "Root"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
					0,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Only show runs of this mode (remaster or ini)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-file results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				records, err := store.Results(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s, target %s) started %s\n",
					run.ID, run.Mode, textutil.NamespaceDir(run.TargetDB), run.StartedAt.Local().Format(displayTimeLayout))
				fmt.Fprintf(out, "Root: %s\n", run.Root)
				fmt.Fprintf(out, "%d succeeded, %d failed, %d copied, %d normalized, %d tagged in %s\n",
					run.Succeeded, run.Failed, run.Copied, run.Normalized, run.Tagged, runElapsed(run))

				var rows [][]string
				for _, rec := range records {
					if failedOnly && rec.Status != history.StatusFailed {
						continue
					}
					rows = append(rows, recordRow(run.Root, rec))
				}
				if len(rows) == 0 {
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Status", "Measured", "Level", "Size", "Time", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
					reasonWidth,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed files")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return errors.New("--keep must not be negative")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of recent runs to keep")
	return cmd
}

func recordRow(root string, rec history.Record) []string {
	measured := "-"
	if rec.Measured {
		measured = strconv.FormatFloat(rec.MeasuredLUFS, 'f', 1, 64) + " LUFS"
	}
	status := rec.Status
	detail := rec.Branch
	if rec.Status == history.StatusFailed {
		status = rec.Kind
		detail = rec.Reason
	} else if rec.Reason != "" {
		detail += ": " + rec.Reason
	}
	size := ""
	if rec.OutputBytes > 0 {
		size = humanize.IBytes(uint64(rec.OutputBytes))
	}
	return []string{
		relativeTo(root, rec.Path),
		status,
		measured,
		strconv.Itoa(rec.Level),
		size,
		rec.Duration.Round(time.Millisecond).String(),
		detail,
	}
}

func runElapsed(run history.Run) string {
	if !run.Finished() {
		return "unfinished"
	}
	return run.Elapsed().Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
