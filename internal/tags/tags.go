package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"remaster/internal/logging"
	"remaster/internal/media/ffprobe"
	"remaster/internal/services"
	"remaster/internal/textutil"
	"remaster/internal/transcode"
)

// Kind is the tagging strategy chosen for a file.
type Kind string

const (
	KindID3    Kind = "id3v2"
	KindFFmpeg Kind = "ffmpeg"
)

// Writer clears existing metadata and sets a single comment.
type Writer struct {
	FFmpegBinary  string
	FFprobeBinary string
	Runner        transcode.Runner
	Logger        *slog.Logger
}

// NewWriter returns a Writer that runs ffmpeg through runner.
func NewWriter(ffmpegBinary, ffprobeBinary string, runner transcode.Runner, logger *slog.Logger) *Writer {
	return &Writer{
		FFmpegBinary:  ffmpegBinary,
		FFprobeBinary: ffprobeBinary,
		Runner:        runner,
		Logger:        logging.NewComponentLogger(logger, "tags"),
	}
}

// Identify reports which strategy Stamp uses for path.
func Identify(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err == nil && fileType == tag.MP3 {
		return KindID3, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return KindID3, nil
	}
	return KindFFmpeg, nil
}

// Stamp replaces all metadata on path with a single comment. An empty text
// leaves the file untouched.
func (w *Writer) Stamp(ctx context.Context, path, text string) error {
	if text == "" {
		return nil
	}
	kind, err := Identify(path)
	if err != nil {
		return services.Wrap(services.ErrTagWrite, "tag", "identify", textutil.DisplayName(path), err)
	}
	switch kind {
	case KindID3:
		err = stampID3(path, text)
	default:
		err = w.stampFFmpeg(ctx, path, text)
	}
	if err != nil {
		return services.Wrap(services.ErrTagWrite, "tag", string(kind), textutil.DisplayName(path), err)
	}
	if w.Logger != nil {
		w.Logger.DebugContext(ctx, "tag written", logging.String("strategy", string(kind)))
	}
	return nil
}

func stampID3(path, text string) (err error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer func() {
		if cerr := t.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	t.DeleteAllFrames()
	t.AddCommentFrame(id3v2.CommentFrame{
		Encoding: id3v2.EncodingUTF8,
		Language: "eng",
		Text:     text,
	})
	if err := t.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

func (w *Writer) stampFFmpeg(ctx context.Context, path, text string) error {
	runner := w.Runner
	if runner == nil {
		runner = transcode.NewExecutor(w.Logger)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+textutil.Stem(path)+".tagging"+filepath.Ext(path))

	if _, err := runner.Run(ctx, transcode.BuildMetadataRewrite(w.FFmpegBinary, path, tmp, text)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace tagged file: %w", err)
	}
	return nil
}

// Read returns the comment stored on path, or "" when none is present.
func (w *Writer) Read(ctx context.Context, path string) (string, error) {
	comment, err := readNative(path)
	if err == nil && comment != "" {
		return comment, nil
	}
	if err != nil && !errors.Is(err, tag.ErrNoTagsFound) {
		if w.Logger != nil {
			w.Logger.DebugContext(ctx, "native tag read failed", logging.Error(err))
		}
	}
	probe, probeErr := ffprobe.Inspect(ctx, w.FFprobeBinary, path)
	if probeErr != nil {
		if err != nil && !errors.Is(err, tag.ErrNoTagsFound) {
			return "", fmt.Errorf("read tag: %w", errors.Join(err, probeErr))
		}
		return "", fmt.Errorf("read tag: %w", probeErr)
	}
	return probe.Comment(), nil
}

func readNative(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	meta, err := tag.ReadFrom(f)
	if err != nil {
		return "", err
	}
	return meta.Comment(), nil
}
