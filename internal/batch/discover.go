package batch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"remaster/internal/logging"
	"remaster/internal/services"
	"remaster/internal/textutil"
)

// Job is one file to process at a target loudness.
type Job struct {
	Path     string
	TargetDB float64
}

// Discover walks root and returns files whose extension is in exts, matched
// case-insensitively, sorted lexicographically. Output namespaces left by
// earlier runs are pruned, and unreadable subdirectories are skipped. A nil
// logger discards the prune and skip notices.
func Discover(root string, exts []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; only the root is fatal.
			if path == root {
				return err
			}
			logger.Debug("skipping unreadable path", logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && isOutputNamespace(path, d.Name()) {
				logger.Debug("pruning output namespace", logging.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "discover", "walk", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// isOutputNamespace reports whether dir is a "<n>dB" directory holding the
// media or ini subdirectory a run writes. A source folder that merely has
// such a name is walked like any other.
func isOutputNamespace(dir, name string) bool {
	if !textutil.IsNamespaceDir(name) {
		return false
	}
	for _, sub := range []string{textutil.MediaSubdir, textutil.INISubdir} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// Plan discovers files under root and pairs each with target.
func Plan(root string, target float64, exts []string, logger *slog.Logger) ([]Job, error) {
	files, err := Discover(root, exts, logger)
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, len(files))
	for i, path := range files {
		jobs[i] = Job{Path: path, TargetDB: target}
	}
	return jobs, nil
}
