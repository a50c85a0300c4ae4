package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestResolveFFmpegToolsPrefersSibling(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	ffprobePath := filepath.Join(tmp, executableName("ffprobe"))
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, path := range []string{ffmpegPath, ffprobePath} {
		if err := os.WriteFile(path, script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", "")

	tools := ResolveFFmpegTools(ffmpegPath, "")
	if !tools.Ready() {
		t.Fatalf("expected both tools available, got %#v", tools)
	}
	if tools.FFprobe.Command != ffprobePath {
		t.Fatalf("expected sibling ffprobe %q, got %q", ffprobePath, tools.FFprobe.Command)
	}
}

func TestResolveFFmpegToolsPathFallback(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, executableName(name)), script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", binDir)

	tools := ResolveFFmpegTools("ffmpeg", "ffprobe")
	if !tools.Ready() {
		t.Fatalf("expected PATH lookup to succeed, got %#v", tools)
	}
	if tools.FFmpeg.Command != filepath.Join(binDir, executableName("ffmpeg")) {
		t.Fatalf("unexpected ffmpeg path %q", tools.FFmpeg.Command)
	}
}

func TestResolveFFmpegToolsNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	tools := ResolveFFmpegTools("", "")
	if tools.Ready() {
		t.Fatal("expected resolution to fail")
	}
	for _, status := range tools.Statuses() {
		if status.Detail == "" {
			t.Fatalf("expected detail message for %s", status.Name)
		}
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
