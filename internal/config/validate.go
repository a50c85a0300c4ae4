package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLoudness(); err != nil {
		return err
	}
	if err := c.validateTag(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateTarget reports whether target is a usable loudness target in dB.
func ValidateTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return errors.New("target loudness must be a finite number")
	}
	if target > 0 || target < -70 {
		return fmt.Errorf("target loudness %v dB is outside the supported range [-70, 0]", target)
	}
	return nil
}

func (c *Config) validateLoudness() error {
	if err := ValidateTarget(c.Loudness.TargetDB); err != nil {
		return fmt.Errorf("loudness.target_db: %w", err)
	}
	switch c.Loudness.Meter {
	case MeterBS1770, MeterFFmpeg:
	default:
		return fmt.Errorf("loudness.meter: unsupported value %q (use %q or %q)", c.Loudness.Meter, MeterBS1770, MeterFFmpeg)
	}
	return nil
}

func (c *Config) validateTag() error {
	if !c.Tag.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Tag.Text) == "" {
		return errors.New("tag.text must be set when tag.enabled is true")
	}
	for _, r := range c.Tag.Text {
		if r > 0xFF {
			return fmt.Errorf("tag.text: character %q cannot be encoded in 8 bits", r)
		}
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.SampleRate <= 0 {
		return errors.New("encoding.sample_rate must be positive")
	}
	if c.Encoding.Channels <= 0 {
		return errors.New("encoding.channels must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
