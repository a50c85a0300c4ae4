package tags_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"remaster/internal/services"
	"remaster/internal/tags"
	"remaster/internal/testsupport"
	"remaster/internal/transcode"
)

const stamp = "Remastered by: Team CoinOPS"

type recordingRunner struct {
	calls []transcode.Command
	fail  error
}

func (r *recordingRunner) Run(_ context.Context, cmd transcode.Command) (transcode.Result, error) {
	r.calls = append(r.calls, cmd)
	if r.fail != nil {
		return transcode.Result{}, r.fail
	}
	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte("tagged"), 0o644); err != nil {
			return transcode.Result{}, err
		}
	}
	return transcode.Result{}, nil
}

func TestStampMP3UsesID3AndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	testsupport.WriteFile(t, path, 2048)

	runner := &recordingRunner{}
	w := tags.NewWriter("ffmpeg", "ffprobe", runner, nil)
	if err := w.Stamp(context.Background(), path, "old comment"); err != nil {
		t.Fatalf("first Stamp: %v", err)
	}
	if err := w.Stamp(context.Background(), path, stamp); err != nil {
		t.Fatalf("second Stamp: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("mp3 tagging must not invoke ffmpeg, got %d calls", len(runner.calls))
	}
	got, err := w.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != stamp {
		t.Fatalf("expected comment %q, got %q", stamp, got)
	}
	if kind, err := tags.Identify(path); err != nil || kind != tags.KindID3 {
		t.Fatalf("expected id3 strategy after tagging, got %q err=%v", kind, err)
	}
}

func TestStampContainerRewritesThroughFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, path, 512)
	runner := &recordingRunner{}
	w := tags.NewWriter("ffmpeg", "ffprobe", runner, nil)

	if err := w.Stamp(context.Background(), path, stamp); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(runner.calls))
	}
	cmd := runner.calls[0]
	if !slices.Contains(cmd.Args, "comment="+stamp) || !slices.Contains(cmd.Args, "-map_metadata") {
		t.Fatalf("unexpected rewrite args %v", cmd.Args)
	}
	if filepath.Ext(cmd.Output) != ".mp4" || filepath.Dir(cmd.Output) != filepath.Dir(path) {
		t.Fatalf("temp output must be a sibling with the same extension, got %q", cmd.Output)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tagged file: %v", err)
	}
	if string(data) != "tagged" {
		t.Fatalf("expected rewritten file to replace the original")
	}
	if _, err := os.Stat(cmd.Output); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone after rename: %v", err)
	}
}

func TestStampFailureIsTagWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	testsupport.WriteFile(t, path, 512)
	runner := &recordingRunner{fail: errors.New("boom")}
	w := tags.NewWriter("ffmpeg", "ffprobe", runner, nil)

	err := w.Stamp(context.Background(), path, stamp)
	if !errors.Is(err, services.ErrTagWrite) {
		t.Fatalf("expected ErrTagWrite, got %v", err)
	}
	if services.Kind(err) != services.KindTagWrite {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestStampEmptyTextIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, path, 16)
	runner := &recordingRunner{}
	if err := tags.NewWriter("ffmpeg", "ffprobe", runner, nil).Stamp(context.Background(), path, ""); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("empty tag must not touch the file")
	}
}

func TestStampMissingFile(t *testing.T) {
	w := tags.NewWriter("ffmpeg", "ffprobe", &recordingRunner{}, nil)
	err := w.Stamp(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), stamp)
	if !errors.Is(err, services.ErrTagWrite) {
		t.Fatalf("expected ErrTagWrite, got %v", err)
	}
}

func TestStampRealContainer(t *testing.T) {
	testsupport.RequireFFmpeg(t)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteVideo(t, path, 1, true, -20)

	w := tags.NewWriter("ffmpeg", "ffprobe", transcode.NewExecutor(nil), nil)
	if err := w.Stamp(context.Background(), path, stamp); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	got, err := w.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != stamp {
		t.Fatalf("expected comment %q, got %q", stamp, got)
	}
}
