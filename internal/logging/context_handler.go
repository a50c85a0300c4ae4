package logging

import (
	"context"
	"log/slog"
)

// contextFieldsHandler copies run, file, and stage annotations from the
// record context so callers using the *Context logging methods do not need
// to thread them through With.
type contextFieldsHandler struct {
	base slog.Handler
}

func newContextFieldsHandler(base slog.Handler) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &contextFieldsHandler{base: base}
}

func (h *contextFieldsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *contextFieldsHandler) Handle(ctx context.Context, record slog.Record) error {
	if fields := ContextFields(ctx); len(fields) > 0 {
		record.AddAttrs(fields...)
	}
	return h.base.Handle(ctx, record)
}

func (h *contextFieldsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextFieldsHandler{base: h.base.WithAttrs(attrs)}
}

func (h *contextFieldsHandler) WithGroup(name string) slog.Handler {
	return &contextFieldsHandler{base: h.base.WithGroup(name)}
}
