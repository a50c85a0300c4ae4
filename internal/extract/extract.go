// Package extract turns an arbitrary media file into an in-memory PCM
// buffer.
//
// Audio-native files are decoded directly. Anything else is probed with
// ffprobe and its first audio stream decoded by ffmpeg into a canonical
// 16-bit WAV, which then goes through the native decoder so every buffer
// has the same origin. A file without usable audio is a valid outcome: the
// Result carries the reason as an error kind instead of a Go error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"remaster/internal/audio"
	"remaster/internal/logging"
	"remaster/internal/media/ffprobe"
	"remaster/internal/services"
	"remaster/internal/transcode"
)

// Attempt names.
const (
	AttemptNative = "native"
	AttemptFFmpeg = "ffmpeg"
)

const (
	fallbackChannels = 2
	fallbackRate     = 44100
	canonicalWAV     = "extract.wav"
)

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Options carries the collaborators Extract needs.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	Runner        transcode.Runner
	Probe         ProbeFunc
	Logger        *slog.Logger
}

// Attempt records one decode strategy and why it failed, if it did.
type Attempt struct {
	Name string
	Err  error
}

// Result describes what extraction produced.
type Result struct {
	Buffer *audio.Buffer
	// Source names the attempt that produced Buffer.
	Source string
	// Kind is services.KindNone on success, otherwise KindNoAudio or KindDecode.
	Kind string
	// Err explains a missing buffer.
	Err      error
	Attempts []Attempt
}

// HasAudio reports whether samples were extracted.
func (r Result) HasAudio() bool {
	return r.Buffer != nil && !r.Buffer.Empty()
}

// Extract decodes path, using tempDir for the intermediate WAV. It never
// returns a Go error for a file-level problem.
func Extract(ctx context.Context, path, tempDir string, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var result Result

	buf, _, err := audio.DecodeFile(path)
	if err == nil && !buf.Empty() {
		result.record(AttemptNative, nil)
		return result.succeed(buf, AttemptNative)
	}
	if err == nil {
		err = errors.New("decoded buffer is empty")
	}
	result.record(AttemptNative, err)
	logger.DebugContext(ctx, "native decode unavailable", logging.Error(err))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result.fail(services.Kind(ctxErr), ctxErr)
	}

	buf, kind, err := decodeWithFFmpeg(ctx, logger, path, tempDir, opts)
	result.record(AttemptFFmpeg, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result.fail(services.Kind(ctxErr), ctxErr)
		}
		logger.DebugContext(ctx, "ffmpeg decode failed",
			logging.String("reason_kind", kind),
			logging.Error(err),
		)
		return result.fail(kind, err)
	}
	return result.succeed(buf, AttemptFFmpeg)
}

func (r *Result) record(name string, err error) {
	r.Attempts = append(r.Attempts, Attempt{Name: name, Err: err})
}

func (r Result) succeed(buf *audio.Buffer, source string) Result {
	r.Buffer = buf
	r.Source = source
	r.Kind = services.KindNone
	r.Err = nil
	return r
}

func (r Result) fail(kind string, err error) Result {
	r.Buffer = nil
	r.Kind = kind
	r.Err = err
	return r
}

// decodeWithFFmpeg returns the buffer or the kind explaining its absence.
// Panics are converted into decode failures.
func decodeWithFFmpeg(ctx context.Context, logger *slog.Logger, path, tempDir string, opts Options) (buf *audio.Buffer, kind string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf = nil
			kind = services.KindDecode
			err = services.Wrap(services.ErrDecode, "extract", AttemptFFmpeg, "decoder panic", fmt.Errorf("%v", rec))
		}
	}()

	probe := opts.Probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	info, err := probe(ctx, opts.FFprobeBinary, path)
	if err != nil {
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "ffprobe", "not a media file", err)
	}
	audioStreams, videoStreams := info.AudioStreamCount(), info.VideoStreamCount()
	logger.DebugContext(ctx, "probed",
		logging.Int("audio_streams", audioStreams),
		logging.Int("video_streams", videoStreams),
	)
	switch {
	case audioStreams == 0 && videoStreams == 0:
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "ffprobe", "not a media file: no audio or video streams", nil)
	case audioStreams == 0:
		return nil, services.KindNoAudio, services.Wrap(services.ErrNoAudio, "extract", "ffprobe", "video without audio", nil)
	}
	stream, _ := info.FirstAudio()

	channels := stream.Channels
	if channels <= 0 {
		channels = fallbackChannels
	}
	rate := stream.SampleRateHz()
	if rate <= 0 {
		rate = fallbackRate
	}

	runner := opts.Runner
	if runner == nil {
		runner = transcode.NewExecutor(opts.Logger)
	}
	res, err := runner.Run(ctx, transcode.BuildDecodePCM(opts.FFmpegBinary, path, channels, rate))
	if err != nil {
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "ffmpeg", "decode audio stream", err)
	}
	pcm := audio.FromS16LE(res.Stdout, channels, rate)
	if pcm.Empty() {
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "ffmpeg", "decoder produced no samples", nil)
	}

	wavPath := filepath.Join(tempDir, canonicalWAV)
	if err := audio.WriteWAV(wavPath, pcm, audio.DefaultBitDepth); err != nil {
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "canonical wav", "write", err)
	}
	out, _, err := audio.DecodeFile(wavPath)
	if err != nil {
		return nil, services.KindDecode, services.Wrap(services.ErrDecode, "extract", "canonical wav", "re-decode", err)
	}
	return out, services.KindNone, nil
}
