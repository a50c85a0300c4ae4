package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DisplayName returns the NFC-normalized base name of path. Files copied off
// macOS volumes often carry decomposed names; normalizing keeps log lines and
// ledger rows comparable.
func DisplayName(path string) string {
	return norm.NFC.String(filepath.Base(path))
}

// Stem returns the base name without its final extension. The bytes are
// kept as they are on disk; MAME matches ini files to ROM names exactly.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeToken folds value into a lowercase ASCII token for file names such
// as run locks. Anything outside [a-z0-9_-] becomes an underscore; blank input
// gives "unknown".
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
