package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"remaster/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [root]",
		Short: "Verify ffmpeg, the audio encoder, and directory access",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			results := preflight.RunAll(cmd.Context(), cfg, root)

			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.section("Dependencies")
			printer.print(preflightStatus(results)...)
			printer.section("Settings")
			printer.print(
				statusLine{Label: "Config", Level: levelInfo, Detail: ctx.configPath},
				statusLine{Label: "Target", Level: levelInfo, Detail: fmt.Sprintf("%g dB", cfg.Loudness.TargetDB)},
				historyStatus(cmd.Context(), cfg),
			)
			return preflight.Err(results)
		},
	}
}
