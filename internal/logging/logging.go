// Package logging provides structured logging using Go's slog package.
package logging

import (
	"log/slog"
	"os"
	"time"
)

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// ScanEvent logs a corpus walk event.
func ScanEvent(root string, files, findings int, args ...any) {
	allArgs := []any{
		"root", root,
		"files", files,
		"findings", findings,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("corpus_scan", allArgs...)
}

// RepairEvent logs a metadata repair.
func RepairEvent(kind, path string, args ...any) {
	allArgs := []any{
		"kind", kind,
		"path", path,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("metadata_repair", allArgs...)
}

// MoveEvent logs a file relocation performed by a rename transaction.
func MoveEvent(source, target string, args ...any) {
	allArgs := []any{
		"source", source,
		"target", target,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("file_move", allArgs...)
}

// MoveError logs a relocation failure. Rename transactions log and continue
// past individual failures after the commit point, then summarize.
func MoveError(source, target string, err error, args ...any) {
	allArgs := []any{
		"source", source,
		"target", target,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("file_move_failed", allArgs...)
}
