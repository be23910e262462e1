// Package logging builds the process logger and defines the narrow logging
// capability that services depend on.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"iplocator/internal/config"
)

// Logger is the capability injected into services. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger in production and a text logger otherwise.
// DebugEnabled overrides the configured level.
func New(cfg config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)
	if cfg.DebugEnabled {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.DebugEnabled}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard is a logger for tests and tools that want silence.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
