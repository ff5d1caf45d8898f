package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the structured logger used by every package. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewLogger returns a logger that tags every record with the given category.
// Records go through the default slog handler.
func NewLogger(category string) Logger {
	if category == "" {
		return slog.Default()
	}
	return slog.Default().With("category", category)
}

// NewTextLogger writes text records at level and above to w.
func NewTextLogger(w io.Writer, level slog.Level, category string) Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	if category != "" {
		l = l.With("category", category)
	}
	return l
}

// Setup installs the process-wide default handler on stderr, as the CLI does
// at startup.
func Setup(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
