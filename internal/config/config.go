package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Loudness contains the normalization target and meter selection.
type Loudness struct {
	TargetDB float64 `toml:"target_db"`
	// Meter selects the integrated loudness implementation: "bs1770"
	// measures in-process, "ffmpeg" delegates to the loudnorm filter.
	Meter string `toml:"meter"`
}

// Tag contains the identifying string written into outputs.
type Tag struct {
	Enabled bool   `toml:"enabled"`
	Text    string `toml:"text"`
}

// Encoding contains the transcoder binaries and the compressed audio profile
// every remastered file is normalized to.
type Encoding struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	AudioCodec    string `toml:"audio_codec"`
	AudioExt      string `toml:"audio_ext"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
	Bitrate       string `toml:"bitrate"`
}

// Batch contains scheduler settings.
type Batch struct {
	// Workers bounds the pool; 0 selects min(32, NumCPU+4).
	Workers int `toml:"workers"`
	// JobTimeoutSeconds bounds a single file; 0 disables the limit.
	JobTimeoutSeconds  int      `toml:"job_timeout_seconds"`
	RemasterExtensions []string `toml:"remaster_extensions"`
	INIExtensions      []string `toml:"ini_extensions"`
	ProgressBar        bool     `toml:"progress_bar"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File mirrors log output into a per-run file under log_dir.
	File bool `toml:"file"`
	// RetentionDays prunes per-run log files older than this; 0 keeps them all.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for remaster.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Loudness: target level and meter implementation
//   - Tag: identifying string stamped into outputs and ini files
//   - Encoding: ffmpeg binaries and the output audio profile
//   - Batch: worker pool size, timeouts, and extension allow-lists
//   - History: SQLite run ledger
//   - Logging: log format, level, and file mirroring
type Config struct {
	Paths    Paths    `toml:"paths"`
	Loudness Loudness `toml:"loudness"`
	Tag      Tag      `toml:"tag"`
	Encoding Encoding `toml:"encoding"`
	Batch    Batch    `toml:"batch"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/remaster/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/remaster/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("remaster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TagText returns the tag to stamp into outputs, or "" when tagging is off.
func (c *Config) TagText() string {
	if !c.Tag.Enabled {
		return ""
	}
	return c.Tag.Text
}

// LockDir returns the directory holding per-root batch lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "remaster")
	}
	return "~/.local/state/remaster"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() []byte {
	return []byte(sampleConfig)
}
