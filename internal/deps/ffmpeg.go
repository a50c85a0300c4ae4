package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tools holds the resolved transcoder binaries.
type Tools struct {
	FFmpeg  Status
	FFprobe Status
}

// Ready reports whether both binaries resolved.
func (t Tools) Ready() bool {
	return t.FFmpeg.Available && t.FFprobe.Available
}

// Statuses returns the tool statuses in display order.
func (t Tools) Statuses() []Status {
	return []Status{t.FFmpeg, t.FFprobe}
}

// ResolveFFmpegTools locates ffmpeg and ffprobe.
//
// When ffprobe is left at its bare default name and ffmpeg was configured
// with an explicit path, an ffprobe sitting next to that ffmpeg wins over
// PATH so both tools come from the same build.
func ResolveFFmpegTools(ffmpegCommand, ffprobeCommand string) Tools {
	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: defaultName(ffmpegCommand, "ffmpeg"), Description: "Decodes, encodes, and remuxes audio"},
	})
	tools := Tools{FFmpeg: statuses[0]}

	probe := defaultName(ffprobeCommand, "ffprobe")
	if probe == "ffprobe" && tools.FFmpeg.Available && strings.ContainsRune(ffmpegCommand, filepath.Separator) {
		if candidate, ok := siblingCandidate(tools.FFmpeg.Command, "ffprobe"); ok {
			if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
				tools.FFprobe = Status{
					Name:        "FFprobe",
					Command:     candidate,
					Description: "Inspects media streams",
					Available:   true,
				}
				return tools
			}
		}
	}

	probeStatus := CheckBinaries([]Requirement{
		{Name: "FFprobe", Command: probe, Description: "Inspects media streams"},
	})
	tools.FFprobe = probeStatus[0]
	if !tools.FFprobe.Available && tools.FFprobe.Detail == "" {
		tools.FFprobe.Detail = fmt.Sprintf("binary %q not found", probe)
	}
	return tools
}

func defaultName(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func siblingCandidate(binaryPath, name string) (string, bool) {
	if binaryPath == "" {
		return "", false
	}
	if _, err := exec.LookPath(binaryPath); err != nil {
		return "", false
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(binaryPath), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
