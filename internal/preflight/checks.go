package preflight

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"remaster/internal/config"
	"remaster/internal/deps"
)

// CheckEncoder verifies that ffmpeg was built with the configured audio
// encoder. It uses a 10-second timeout and a single attempt.
func CheckEncoder(ctx context.Context, ffmpegBinary, codec string) Result {
	name := "Encoder " + codec
	if strings.TrimSpace(ffmpegBinary) == "" {
		return Result{Name: name, Detail: "ffmpeg not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, ffmpegBinary, "-hide_banner", "-encoders")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("encoder listing failed (%v)", err)}
	}
	if hasEncoder(stdout.Bytes(), codec) {
		return Result{Name: name, Passed: true, Detail: "available"}
	}
	return Result{Name: name, Detail: fmt.Sprintf("ffmpeg was built without %s", codec)}
}

// hasEncoder scans `ffmpeg -encoders` output, where each encoder line is
// " A....D libmp3lame  description".
func hasEncoder(listing []byte, codec string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == codec {
			return true
		}
	}
	return false
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the transcoder binaries for the given config.
// Both the batch commands and the check command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) deps.Tools {
	return deps.ResolveFFmpegTools(cfg.Encoding.FFmpegBinary, cfg.Encoding.FFprobeBinary)
}

// PinTools replaces the configured transcoder commands with their resolved
// paths, so every job runs the binaries preflight approved. It reports false
// and leaves cfg alone when either tool is missing.
func PinTools(cfg *config.Config) bool {
	tools := CheckSystemDeps(cfg)
	if !tools.Ready() {
		return false
	}
	cfg.Encoding.FFmpegBinary = tools.FFmpeg.Command
	cfg.Encoding.FFprobeBinary = tools.FFprobe.Command
	return true
}
