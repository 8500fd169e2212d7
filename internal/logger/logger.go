package logger

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

func init() {
	// Sensible default until Init runs, so early startup errors are not lost.
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// Init configures the process-wide logger. Called once from main after the
// configuration has been loaded.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(Logger)
}

// With returns a logger carrying a fixed component attribute.
func With(component string) *slog.Logger {
	return Logger.With("component", component)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
