package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"remaster/internal/services"
)

func TestContextFieldsHandlerAddsRunAndFile(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newContextFieldsHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithFile(ctx, "/roms/a.mp4")
	logger.InfoContext(ctx, "measured")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"run-1"`) {
		t.Errorf("expected run_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"file":"/roms/a.mp4"`) {
		t.Errorf("expected file in output, got: %s", output)
	}
}

func TestContextFieldsHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newContextFieldsHandler(slog.NewJSONHandler(&buf, nil))).With("extra", "value")
	logger.InfoContext(services.WithStage(context.Background(), "remux"), "test message")

	output := buf.String()
	if !strings.Contains(output, `"stage":"remux"`) {
		t.Errorf("expected stage in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestContextFieldsHandlerNilBase(t *testing.T) {
	handler := newContextFieldsHandler(nil)
	if _, ok := handler.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler when base is nil, got: %T", handler)
	}
}
