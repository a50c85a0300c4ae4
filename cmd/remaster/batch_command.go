package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"remaster/internal/batch"
	"remaster/internal/config"
	"remaster/internal/history"
	"remaster/internal/logging"
	"remaster/internal/media"
	"remaster/internal/preflight"
)

type batchFlags struct {
	target  float64
	workers int
	tag     string
	noTag   bool
}

func newBatchCommand(ctx *commandContext, mode batch.Mode) *cobra.Command {
	var flags batchFlags

	use, alias, short := "remaster [root]", "remaster-all", "Write loudness-normalized copies of every video under root"
	if mode == batch.ModeINI {
		use, alias, short = "ini [root]", "generate-metadata-all", "Write a MAME volume ini for every media file under root"
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: []string{alias},
		Short:   short,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runBatch(cmd, ctx, mode, root, flags)
		},
	}

	cmd.Flags().Float64VarP(&flags.target, "target", "t", 0, "Target integrated loudness in dB (default from config, -24)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrent jobs (default from config)")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "Override the tag text")
	cmd.Flags().BoolVar(&flags.noTag, "no-tag", false, "Do not tag outputs")
	cmd.MarkFlagsMutuallyExclusive("tag", "no-tag")
	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, mode batch.Mode, rootArg string, flags batchFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err = applyBatchFlags(cmd, cfg, flags)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger, err := ctx.logger(stderr)
	if err != nil {
		return err
	}

	root, err := config.ExpandPath(rootArg)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	checks := preflight.RunAll(cmd.Context(), cfg, root)
	if err := preflight.Err(checks); err != nil {
		newStatusPrinter(stderr).print(preflightStatus(preflight.Failed(checks))...)
		return err
	}
	preflight.PinTools(cfg)

	deps := batch.Deps{
		Media:    media.OptionsFromConfig(cfg, logger),
		Reporter: batch.DefaultReporter(cmd.OutOrStdout(), stderrFile(stderr), cfg.Batch.ProgressBar),
		LockDir:  cfg.LockDir(),
		Logger:   logger,
	}
	if store := openHistory(cfg, logger); store != nil {
		defer store.Close()
		deps.Recorder = store
	}

	summary, err := batch.Execute(cmd.Context(), cfg, batch.Request{
		Mode:     mode,
		Root:     root,
		TargetDB: cfg.Loudness.TargetDB,
		Tag:      cfg.TagText(),
	}, deps)
	if err != nil {
		return err
	}

	renderSummary(stderr, summary)
	if cmd.Context().Err() != nil {
		return cmd.Context().Err()
	}
	return summary.Err()
}

// applyBatchFlags returns a copy of cfg with explicitly set flags applied.
func applyBatchFlags(cmd *cobra.Command, cfg *config.Config, flags batchFlags) (*config.Config, error) {
	out := *cfg
	if cmd.Flags().Changed("target") {
		if err := config.ValidateTarget(flags.target); err != nil {
			return nil, err
		}
		out.Loudness.TargetDB = flags.target
	}
	if cmd.Flags().Changed("workers") {
		if flags.workers < 1 {
			return nil, errors.New("--workers must be at least 1")
		}
		out.Batch.Workers = flags.workers
	}
	if cmd.Flags().Changed("tag") {
		text := strings.TrimSpace(flags.tag)
		if text == "" {
			return nil, errors.New("--tag must not be empty; use --no-tag to disable tagging")
		}
		out.Tag = config.Tag{Enabled: true, Text: text}
	}
	if flags.noTag {
		out.Tag.Enabled = false
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// openHistory returns nil when the ledger is disabled or unavailable; a
// broken ledger never blocks a batch.
func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.OpenConfig(cfg)
	if errors.Is(err, history.ErrDisabled) {
		return nil
	}
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.History.Path),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return nil
	}
	return store
}

func stderrFile(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
