package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Init resets the package logger to its default stdout JSON handler.
func Init() {
	log = slog.New(NewJSONHandler(os.Stdout, nil))
}

// NewJSONHandler wraps slog's JSON handler so tests can redirect output.
func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Infof(format string, v ...any) {
	log.Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string) {
	log.Error(msg)
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

func WithError(err error) *slog.Logger {
	return log.With("error", err)
}

func WithFields(fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}
