// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

type loggerKey struct{}

// RunIDKey is the attribute key used for the per-invocation run identifier.
const RunIDKey = "runID"

// LevelVar holds the level shared by all loggers created by this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger writes pretty records to stderr, keeping stdout for child process output.
var DefaultLogger = slog.New(NewPrettyHandler(&slog.HandlerOptions{
	Level: LevelVar,
},
	WithAutoColour(),
	WithDestinationWriter(os.Stderr),
))

func init() {
	LevelVar.Set(LevelFromEnv(os.Getenv(LevelEnvName())))
}

// New returns a copy of ctx carrying logger.
// A nil logger stores DefaultLogger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// With returns a copy of ctx whose logger has the supplied attributes added.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// WithRunID tags every record logged through ctx with the given run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return With(ctx, RunIDKey, id)
}

// WithFile fans records out to w as JSON in addition to the logger already in ctx.
func WithFile(ctx context.Context, w io.Writer) context.Context {
	fileHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: LevelVar,
	})

	return New(ctx, slog.New(slogmulti.Fanout(Logger(ctx).Handler(), fileHandler)))
}

// Info logs an info message with the given context.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Info(msg, args...)
}

// Debug logs a debug message with the given context.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Debug(msg, args...)
}

// Warn logs a warning message with the given context.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Warn(msg, args...)
}

// Error logs an error message with the given context.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Error(msg, args...)
}

// LevelEnvName returns the name of the variable controlling the log level,
// e.g. SCRIPTRUN_LOG_LEVEL for an executable named scriptrun.
func LevelEnvName() string {
	exe, _ := os.Executable()
	exe = filepath.Base(exe)
	exe = strings.TrimSuffix(exe, ".exe")
	exe = strings.NewReplacer("-", "_", ".", "_").Replace(exe)

	return strings.ToUpper(exe) + "_LOG_LEVEL"
}

// LevelFromEnv maps DEBUG, INFO, WARN and ERROR to a slog level.
// Anything else is WARN.
func LevelFromEnv(v string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
