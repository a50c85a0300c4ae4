package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"remaster/internal/config"
	"remaster/internal/logging"
	"remaster/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	var buf bytes.Buffer
	logger, path, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no log file when file logging is disabled, got %q", path)
	}
	logger.Debug("debug message")
	logger.Info("info message")
	if strings.Contains(buf.String(), "debug message") {
		t.Fatalf("debug output leaked at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "info message") {
		t.Fatalf("expected info output, got %q", buf.String())
	}
}

func TestNewFromConfigMirrorsToFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.File = true

	var buf bytes.Buffer
	logger, path, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if filepath.Dir(path) != cfg.Paths.LogDir {
		t.Fatalf("unexpected log path %q", path)
	}
	logger.Info("mirrored", logging.String("k", "v"))

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", content, err)
	}
	if record["msg"] != "mirrored" || record["k"] != "v" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "media")
	ctx := services.WithFile(context.Background(), "/roms/deep/pacman.mp4")
	ctx = services.WithStage(ctx, "measure")
	logger.InfoContext(ctx, "loudness measured",
		logging.Float64("measured_lufs", -30),
		logging.Int64("output_bytes", 2048),
		logging.Duration("elapsed", 1500*time.Millisecond),
	)

	out := buf.String()
	for _, fragment := range []string{"INFO [media] pacman.mp4 (measure) – loudness measured", "measured_lufs: -30.00 dB", "output_bytes: 2.0 KiB", "elapsed: 1.5s"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output %q", fragment, out)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))
	if !strings.Contains(buf.String(), `"level":"info"`) {
		t.Fatalf("expected lower-case level, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info level, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithFile(ctx, "/roms/a.avi")

	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldRunID || fields[0].Value.String() != "run-xyz" {
		t.Fatalf("unexpected run field %v", fields[0])
	}
	if fields[1].Key != logging.FieldFile || fields[1].Value.String() != "/roms/a.avi" {
		t.Fatalf("unexpected file field %v", fields[1])
	}

	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, base).Info("contextual log")
	if !strings.Contains(buf.String(), `"run_id":"run-xyz"`) {
		t.Fatalf("expected run_id in %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "tag failed", "tag_write_failed", logging.String(logging.FieldImpact, "output untagged"))
	out := buf.String()
	for _, fragment := range []string{`"event_type":"tag_write_failed"`, `"error_hint"`, `"impact":"output untagged"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %s in %q", fragment, out)
		}
	}
}

func TestCleanupOldLogsKeepsCurrentAndRecent(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "remaster-20200101T000000.log")
	recent := filepath.Join(dir, "remaster-20990101T000000.log")
	current := filepath.Join(dir, "remaster-20100101T000000.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -90)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), dir, 30, current)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{recent, current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestJSONLoggerFormatsErrorsAndDurations(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	failure := services.Wrap(services.ErrTranscode, "remaster", "remux", "", errors.New("exit status 1"))
	logger.Warn("job failed", logging.Error(failure), logging.Duration("elapsed", 1500*time.Millisecond))
	out := buf.String()
	for _, fragment := range []string{`"error_kind":"TranscodeFailure"`, `"elapsed":"1.5s"`, `"ts":"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output %q", fragment, out)
		}
	}
}
