package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"remaster/internal/media"
	"remaster/internal/media/ffprobe"
	"remaster/internal/tagcode"
	"remaster/internal/tags"
	"remaster/internal/transcode"
)

// errNoTag is returned when input carries no encoded tag line.
var errNoTag = errors.New("no encoded tag found")

func newTagCommand(ctx *commandContext) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Encode, decode, and inspect tags",
	}
	tagCmd.AddCommand(newTagEncodeCommand())
	tagCmd.AddCommand(newTagDecodeCommand())
	tagCmd.AddCommand(newTagShowCommand(ctx))
	return tagCmd
}

func newTagEncodeCommand() *cobra.Command {
	var visible bool
	cmd := &cobra.Command{
		Use:         "encode <text>",
		Short:       "Print the whitespace encoding of text",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := tagcode.Encode(args[0])
			if err != nil {
				return err
			}
			if visible {
				code = strings.NewReplacer(" ", "0", "\t", "1").Replace(code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&visible, "visible", false, "Print bits as 0 and 1 instead of space and tab")
	return cmd
}

func newTagDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "decode [file]",
		Short:       "Decode the first whitespace-encoded line of a file or stdin",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := decodeFirstTag(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func decodeFirstTag(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		code, ok := tagcode.Line(scanner.Text())
		if !ok {
			continue
		}
		return tagcode.Decode(code)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errNoTag
}

func newTagShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>...",
		Short: "Show the tag of ini files and media outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			writer := tags.NewWriter(cfg.Encoding.FFmpegBinary, cfg.Encoding.FFprobeBinary, transcode.NewExecutor(logger), logger)

			rows := make([][]string, 0, len(args))
			var failed int
			for _, path := range args {
				row, err := tagRow(cmd, writer, path)
				if err != nil {
					failed++
					row = []string{path, "", "error: " + err.Error(), "", "", ""}
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Volume", "Tag", "Duration", "Size", "Bitrate"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
				0,
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(args))
			}
			return nil
		},
	}
}

func tagRow(cmd *cobra.Command, writer *tags.Writer, path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		ini, err := media.ReadINI(path)
		if err != nil {
			return nil, err
		}
		return []string{path, strconv.Itoa(ini.Volume), ini.Tag, "", "", ""}, nil
	}
	comment, err := writer.Read(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	row := []string{path, "", comment, "", "", ""}
	info, err := ffprobe.Inspect(cmd.Context(), writer.FFprobeBinary, path)
	if err != nil {
		return row, nil
	}
	if seconds := info.DurationSeconds(); seconds > 0 {
		row[3] = time.Duration(seconds * float64(time.Second)).Round(time.Millisecond).String()
	}
	if size := info.SizeBytes(); size > 0 {
		row[4] = humanize.IBytes(uint64(size))
	}
	if rate := info.BitRate(); rate > 0 {
		row[5] = fmt.Sprintf("%d kb/s", rate/1000)
	}
	return row, nil
}
