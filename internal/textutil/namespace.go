package textutil

import (
	"path/filepath"
	"regexp"
	"strconv"
)

// Output subdirectories under the per-target namespace.
const (
	MediaSubdir = "media"
	INISubdir   = "ini"
)

var namespacePattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?dB$`)

// FormatTarget renders a loudness target the shortest way that round-trips:
// -24 becomes "-24", -23.5 stays "-23.5".
func FormatTarget(target float64) string {
	return strconv.FormatFloat(target, 'f', -1, 64)
}

// NamespaceDir returns the "<target>dB" directory name for a target.
func NamespaceDir(target float64) string {
	return FormatTarget(target) + "dB"
}

// IsNamespaceDir reports whether name looks like an output namespace
// directory created by a previous run.
func IsNamespaceDir(name string) bool {
	return namespacePattern.MatchString(name)
}

// MediaOutputPath returns <dir(source)>/<target>dB/media/<base(source)>.
func MediaOutputPath(source string, target float64) string {
	return filepath.Join(filepath.Dir(source), NamespaceDir(target), MediaSubdir, filepath.Base(source))
}

// INIOutputPath returns <dir(source)>/<target>dB/ini/<stem(source)>.ini.
func INIOutputPath(source string, target float64) string {
	return filepath.Join(filepath.Dir(source), NamespaceDir(target), INISubdir, Stem(source)+".ini")
}
