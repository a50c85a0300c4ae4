package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"remaster/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscode, "remaster", "remux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"remaster", "remux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerIsInternal(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrInternal) {
		t.Fatalf("expected internal marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "remaster failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, services.KindNone},
		{services.Wrap(services.ErrNoAudio, "extract", "", "", nil), services.KindNoAudio},
		{services.Wrap(services.ErrDecode, "extract", "ffprobe", "", errors.New("x")), services.KindDecode},
		{services.Wrap(services.ErrTranscode, "remaster", "encode", "", nil), services.KindTranscode},
		{services.Wrap(services.ErrTagWrite, "tag", "", "", nil), services.KindTagWrite},
		{services.Wrap(services.ErrFilesystem, "copy", "", "", nil), services.KindFilesystem},
		{services.Wrap(services.ErrValidation, "", "", "bad", nil), services.KindValidation},
		{services.Wrap(services.ErrConfiguration, "", "", "bad", nil), services.KindConfiguration},
		{fmt.Errorf("job: %w", context.DeadlineExceeded), services.KindTimeout},
		{fmt.Errorf("job: %w", context.Canceled), services.KindCanceled},
		{errors.New("plain"), services.KindInternal},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
