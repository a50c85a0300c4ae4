package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLoudness()
	c.normalizeTag()
	c.normalizeEncoding()
	c.normalizeBatch()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLoudness() {
	c.Loudness.Meter = strings.ToLower(strings.TrimSpace(c.Loudness.Meter))
	if c.Loudness.Meter == "" {
		c.Loudness.Meter = defaultMeter
	}
}

func (c *Config) normalizeTag() {
	if value, ok := os.LookupEnv("REMASTER_TAG"); ok && strings.TrimSpace(value) != "" {
		c.Tag.Text = value
	}
}

func (c *Config) normalizeEncoding() {
	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	if c.Encoding.FFmpegBinary == "" {
		c.Encoding.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoding.FFprobeBinary = strings.TrimSpace(c.Encoding.FFprobeBinary)
	if c.Encoding.FFprobeBinary == "" {
		c.Encoding.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoding.AudioCodec = strings.TrimSpace(c.Encoding.AudioCodec)
	if c.Encoding.AudioCodec == "" {
		c.Encoding.AudioCodec = defaultAudioCodec
	}
	c.Encoding.AudioExt = normalizeExtension(c.Encoding.AudioExt)
	if c.Encoding.AudioExt == "" {
		c.Encoding.AudioExt = defaultAudioExt
	}
	c.Encoding.Bitrate = strings.ToLower(strings.TrimSpace(c.Encoding.Bitrate))
	if c.Encoding.Bitrate == "" {
		c.Encoding.Bitrate = defaultBitrate
	}
	if c.Encoding.SampleRate == 0 {
		c.Encoding.SampleRate = defaultSampleRate
	}
	if c.Encoding.Channels == 0 {
		c.Encoding.Channels = defaultChannels
	}
}

func (c *Config) normalizeBatch() {
	c.Batch.RemasterExtensions = normalizeExtensions(c.Batch.RemasterExtensions, defaultRemasterExtensions)
	c.Batch.INIExtensions = normalizeExtensions(c.Batch.INIExtensions, defaultINIExtensions)
	if c.Batch.JobTimeoutSeconds < 0 {
		c.Batch.JobTimeoutSeconds = 0
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func normalizeExtensions(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := normalizeExtension(value)
		if ext == "" {
			continue
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func normalizeExtension(value string) string {
	ext := strings.ToLower(strings.TrimSpace(value))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
