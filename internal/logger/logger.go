package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a named slog wrapper. Function and File return copies, so a
// package-level logger can be narrowed per call without mutation.
type Logger struct {
	name     string
	file     string
	function string
	logger   *slog.Logger
}

// Setup installs the process-wide slog handler. level is debug|info|warn|error,
// format is text|json.
func Setup(w io.Writer, level, format string) {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func New(name string) Logger {
	return Logger{name: name}
}

func (l Logger) Function(function string) Logger {
	l.function = function
	return l
}

func (l Logger) File(file string) Logger {
	l.file = file
	return l
}

// With returns a logger backed by a specific slog.Logger, used by tests to
// capture output.
func (l Logger) With(logger *slog.Logger) Logger {
	l.logger = logger
	return l
}

func (l Logger) base() *slog.Logger {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{slog.String("package", l.name)}
	if l.file != "" {
		attrs = append(attrs, slog.String("file", l.file))
	}
	if l.function != "" {
		attrs = append(attrs, slog.String("function", l.function))
	}
	return logger.With(attrs...)
}

func (l Logger) log(level slog.Level, msg string, args ...any) {
	l.base().Log(context.Background(), level, msg, args...)
}

func (l Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }

// Error logs msg and returns it as an error.
func (l Logger) Error(msg string, args ...any) error {
	l.log(slog.LevelError, msg, args...)
	return errors.New(msg)
}

// Err logs msg with err and returns "msg: err" wrapping err.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.log(slog.LevelError, msg, append([]any{"error", err}, args...)...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Er logs like Err without returning anything.
func (l Logger) Er(msg string, err error, args ...any) {
	l.log(slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

func (l Logger) ErrMsg(msg string, args ...any) error {
	l.log(slog.LevelError, msg, args...)
	return errors.New(msg)
}

// Slog exposes the underlying logger for libraries that take a *slog.Logger.
func (l Logger) Slog() *slog.Logger {
	return l.base()
}
