package media

import (
	"context"
	"log/slog"

	"remaster/internal/config"
	"remaster/internal/extract"
	"remaster/internal/loudness"
	"remaster/internal/tags"
	"remaster/internal/transcode"
)

// Tagger stamps an output file with the identifying comment.
type Tagger interface {
	Stamp(ctx context.Context, path, text string) error
}

// Options carries the collaborators a Unit uses.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	Profile       transcode.Profile
	// AudioExt is the extension of the intermediate compressed stream.
	AudioExt string
	Runner   transcode.Runner
	Meter    loudness.Meter
	Tagger   Tagger
	Probe    extract.ProbeFunc
	// TempRoot is where unit temp directories are created; empty uses the
	// system default.
	TempRoot string
	Logger   *slog.Logger
}

// OptionsFromConfig wires the default collaborators from configuration.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	runner := transcode.NewExecutor(logger)
	return Options{
		FFmpegBinary:  cfg.Encoding.FFmpegBinary,
		FFprobeBinary: cfg.Encoding.FFprobeBinary,
		Profile:       transcode.ProfileFromConfig(cfg.Encoding),
		AudioExt:      cfg.Encoding.AudioExt,
		Runner:        runner,
		Meter:         loudness.NewMeter(cfg, runner, logger),
		Tagger:        tags.NewWriter(cfg.Encoding.FFmpegBinary, cfg.Encoding.FFprobeBinary, runner, logger),
		Logger:        logger,
	}
}

func (o Options) withDefaults() Options {
	if o.Runner == nil {
		o.Runner = transcode.NewExecutor(o.Logger)
	}
	if o.Meter == nil {
		o.Meter = loudness.BS1770Meter{}
	}
	if o.Tagger == nil {
		o.Tagger = tags.NewWriter(o.FFmpegBinary, o.FFprobeBinary, o.Runner, o.Logger)
	}
	if o.Profile == (transcode.Profile{}) {
		o.Profile = transcode.DefaultProfile()
	}
	if o.AudioExt == "" {
		o.AudioExt = ".mp3"
	}
	return o
}

// RemasterOptions controls a single Remaster call.
type RemasterOptions struct {
	// Output overrides <dir>/<target>dB/media/<name>.
	Output   string
	TargetDB float64
	// Tag is written to the output when non-empty.
	Tag string
}

// Branch names the path Remaster took.
type Branch string

const (
	BranchCopied     Branch = "copied"
	BranchNormalized Branch = "normalized"
)

// RemasterResult describes a written output.
type RemasterResult struct {
	Output  string
	Branch  Branch
	GainDB  float64
	Clipped int
	Tagged  bool
	// TagErr is the swallowed tag failure, if any.
	TagErr error
}

// INIOptions controls a single MameINI call.
type INIOptions struct {
	// Output overrides <dir>/<target>dB/ini/<stem>.ini.
	Output   string
	TargetDB float64
	Tag      string
}

// INIResult describes a written ini file.
type INIResult struct {
	Output string
	Level  int
}
