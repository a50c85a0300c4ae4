package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoAudio       = errors.New("no audio")
	ErrDecode        = errors.New("decode failure")
	ErrTranscode     = errors.New("transcode failure")
	ErrTagWrite      = errors.New("tag write failure")
	ErrFilesystem    = errors.New("filesystem error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrInternal      = errors.New("internal error")
)

// Error kinds reported in summaries and the history ledger.
const (
	KindNone          = ""
	KindNoAudio       = "NoAudioTrack"
	KindDecode        = "DecodeFailure"
	KindTranscode     = "TranscodeFailure"
	KindTagWrite      = "TagWriteFailure"
	KindFilesystem    = "FilesystemError"
	KindValidation    = "ValidationError"
	KindConfiguration = "ConfigurationError"
	KindTimeout       = "Timeout"
	KindCanceled      = "Canceled"
	KindInternal      = "InternalError"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its taxonomy name. Unmarked errors are reported as
// internal failures; nil maps to KindNone.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrNoAudio):
		return KindNoAudio
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrTranscode):
		return KindTranscode
	case errors.Is(err, ErrTagWrite):
		return KindTagWrite
	case errors.Is(err, ErrFilesystem):
		return KindFilesystem
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "remaster failure"
	}
	return strings.Join(parts, ": ")
}
