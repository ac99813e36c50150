// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{
			name: "context with logger",
			ctx:  New(context.Background(), custom),
			want: custom,
		},
		{
			name: "context without logger",
			ctx:  context.Background(),
			want: DefaultLogger,
		},
		{
			name: "New with nil logger stores default",
			ctx:  New(context.Background(), nil),
			want: DefaultLogger,
		},
		{
			name: "wrong type value",
			ctx:  context.WithValue(context.Background(), loggerKey{}, "not a logger"),
			want: DefaultLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, Logger(tt.ctx))
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	tests := []struct {
		name    string
		logFunc func(context.Context, string, ...any)
		want    string
	}{
		{name: "debug", logFunc: Debug, want: "DEBUG"},
		{name: "info", logFunc: Info, want: "INFO"},
		{name: "warn", logFunc: Warn, want: "WARN"},
		{name: "error", logFunc: Error, want: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, "message for "+tt.name, "k", "v")

			out := buf.String()
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "message for "+tt.name)
			assert.Contains(t, out, "k=v")
		})
	}
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = WithRunID(ctx, "abc-123")

	Warn(ctx, "tagged")

	assert.Contains(t, buf.String(), RunIDKey+"=abc-123")
}

func TestWithFile(t *testing.T) {
	var console, file bytes.Buffer

	prev := LevelVar.Level()
	LevelVar.Set(slog.LevelInfo)

	t.Cleanup(func() { LevelVar.Set(prev) })

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&console, nil)))
	ctx = WithFile(ctx, &file)

	Info(ctx, "fan out", "script", "hello.sh")

	assert.Contains(t, console.String(), "fan out")

	var rec map[string]any

	require.NoError(t, json.Unmarshal(bytes.TrimSpace(file.Bytes()), &rec))
	assert.Equal(t, "fan out", rec["msg"])
	assert.Equal(t, "hello.sh", rec["script"])
}

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelWarn,
		"verbose": slog.LevelWarn,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, LevelFromEnv(in))
		})
	}
}

func TestLevelEnvName(t *testing.T) {
	name := LevelEnvName()
	assert.True(t, strings.HasSuffix(name, "_LOG_LEVEL"))
	assert.Equal(t, strings.ToUpper(name), name)
}
