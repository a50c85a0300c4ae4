package batch

import (
	"fmt"
	"strings"

	"remaster/internal/config"
)

// Mode selects the per-file operation.
type Mode string

const (
	ModeRemaster Mode = "remaster"
	ModeINI      Mode = "ini"
)

// ParseMode accepts the mode names and their long command aliases.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "remaster", "remaster-all":
		return ModeRemaster, nil
	case "ini", "generate-metadata-all":
		return ModeINI, nil
	default:
		return "", fmt.Errorf("unknown batch mode %q", value)
	}
}

// Extensions returns the configured allow-list for the mode.
func (m Mode) Extensions(cfg *config.Config) []string {
	if m == ModeINI {
		return cfg.Batch.INIExtensions
	}
	return cfg.Batch.RemasterExtensions
}

// Announcement is the line printed before dispatch.
func (m Mode) Announcement(total int) string {
	if m == ModeINI {
		return fmt.Sprintf("Generating %d ini files...", total)
	}
	return fmt.Sprintf("Remastering %d files...", total)
}
