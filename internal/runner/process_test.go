// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func shProcess(label, script string) *Process {
	return &Process{
		BaseCommand: &BaseCommand{Label: label},
		Path:        "/bin/sh",
		Args:        []string{"-c", script},
	}
}

func TestProcess_Success(t *testing.T) {
	skipOnWindows(t)

	var stdout bytes.Buffer

	p := shProcess("echo", "echo hello")
	p.Stdout = &stdout

	res := p.Execute(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Error)
	assert.Equal(t, "hello\n", stdout.String(), "live writer receives output")
	assert.Equal(t, "hello\n", string(res.StdOut), "output is captured too")
	assert.Positive(t, res.Duration)
}

func TestProcess_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	var stderr bytes.Buffer

	p := shProcess("fail", "echo boom >&2; exit 3")
	p.Stderr = &stderr

	res := p.Execute(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrNonZeroExit)
	assert.Contains(t, res.Error.Error(), "exit code 3")
	assert.Equal(t, "boom\n", stderr.String())
}

func TestProcess_SuccessExitCodes(t *testing.T) {
	skipOnWindows(t)

	p := shProcess("grep no match", "exit 1")
	p.SuccessExitCodes = []int{0, 1}

	res := p.Execute(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.ExitCode)
}

func TestProcess_NotFound(t *testing.T) {
	p := &Process{
		BaseCommand: &BaseCommand{Label: "missing"},
		Path:        "/not/a/real/command",
	}

	res := p.Execute(context.Background())

	var pathErr *os.PathError

	require.ErrorAs(t, res.Error, &pathErr)
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, -1, res.ExitCode)
}

func TestProcess_NilBaseCommand(t *testing.T) {
	skipOnWindows(t)

	p := &Process{Path: "/bin/sh", Args: []string{"-c", "true"}}

	res := p.Execute(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "[unnamed]", res.Label)
}

func TestProcess_EnvAndCwd(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	p := shProcess("env and cwd", "echo $FOO; pwd")
	p.Env = map[string]string{"FOO": "BAR"}
	p.Cwd = dir

	res := p.Execute(context.Background())

	require.Equal(t, StatusSuccess, res.Status)
	out := string(res.StdOut)
	assert.Contains(t, out, "BAR")
	assert.Contains(t, out, dir)
}

func TestProcess_Timeout(t *testing.T) {
	skipOnWindows(t)

	p := shProcess("slow", "sleep 10")
	p.Timeout = 200 * time.Millisecond
	p.NewProcessGroup = true

	start := time.Now()
	res := p.Execute(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second, "process group should be killed promptly")
	assert.Equal(t, StatusTimeout, res.Status)
	assert.Equal(t, -1, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrTimeoutExceeded)
	assert.Contains(t, string(res.StdErr), "killing process")
}

func TestProcess_TimeoutWithBackgroundChild(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name  string
		group bool
	}{
		{"process group", true},
		{"no process group", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// The shell exits at once but the background sleep keeps the pipes open.
			p := shProcess("background", "sleep 5 & echo started")
			p.Timeout = 300 * time.Millisecond
			p.NewProcessGroup = tc.group

			start := time.Now()
			res := p.Execute(context.Background())

			assert.Less(t, time.Since(start), 3*time.Second, "timeout must fire while output is drained")
			assert.Equal(t, StatusTimeout, res.Status)
			require.ErrorIs(t, res.Error, ErrTimeoutExceeded)
			assert.Equal(t, "started\n", string(res.StdOut))
		})
	}
}

func TestProcess_ParentCancelled(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	p := &Process{
		BaseCommand: &BaseCommand{Label: "sleep"},
		Path:        "/bin/sleep",
		Args:        []string{"10"},
	}

	res := p.Execute(ctx)

	assert.Equal(t, StatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrCancelled)
	require.NotErrorIs(t, res.Error, ErrTimeoutExceeded)
}

func TestProcess_SignalForwarded(t *testing.T) {
	skipOnWindows(t)

	p := &Process{
		BaseCommand: &BaseCommand{Label: "sleep"},
		Path:        "/bin/sleep",
		Args:        []string{"10"},
		sigCh:       make(chan os.Signal, 1),
	}

	go func() {
		time.Sleep(300 * time.Millisecond)
		p.sigCh <- os.Interrupt
	}()

	res := p.Execute(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, -1, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrSignalReceived)
	assert.Contains(t, string(res.StdErr), "interrupt")
}

func TestProcess_CaptureLimit(t *testing.T) {
	skipOnWindows(t)

	var live bytes.Buffer

	p := shProcess("chatty", "printf '0123456789'")
	p.MaxCapture = 4
	p.Stdout = &live

	res := p.Execute(context.Background())

	assert.Equal(t, "0123", string(res.StdOut))
	assert.True(t, res.Truncated)
	assert.Equal(t, "0123456789", live.String(), "live output is never truncated")
}

func TestProcess_LargeOutputDoesNotBlock(t *testing.T) {
	skipOnWindows(t)

	p := shProcess("large", "head -c 1048576 /dev/zero")

	res := p.Execute(context.Background())

	require.Equal(t, StatusSuccess, res.Status)
	assert.Len(t, res.StdOut, 1048576)
}

func TestProcess_ProgressEvents(t *testing.T) {
	skipOnWindows(t)

	var events []progress.Event

	p := shProcess("talk", "echo one; echo two")
	p.SetReporter(progress.ReporterFunc(func(e progress.Event) { events = append(events, e) }))

	p.Execute(context.Background())

	require.NotEmpty(t, events)
	assert.Equal(t, progress.EventStarted, events[0].Type)
	assert.Equal(t, progress.EventCompleted, events[len(events)-1].Type)

	var lines []string

	for _, e := range events {
		if e.Type == progress.EventOutput {
			lines = append(lines, e.Line)
		}

		assert.Equal(t, []string{"talk"}, e.Path)
	}

	assert.Equal(t, "one,two", strings.Join(lines, ","))
}

func TestProcess_LongLineWithReporter(t *testing.T) {
	skipOnWindows(t)

	var lines []string

	p := shProcess("long", "head -c 1048576 /dev/zero | tr '\\000' a; echo; echo done")
	p.SetReporter(progress.ReporterFunc(func(e progress.Event) {
		if e.Type == progress.EventOutput {
			lines = append(lines, e.Line)
		}
	}))

	res := p.Execute(context.Background())

	require.Equal(t, StatusSuccess, res.Status)
	assert.Len(t, res.StdOut, 1048576+len("\ndone\n"), "capture keeps the whole line")
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], maxLineLength)
	assert.Equal(t, "done", lines[1])
}

func TestProcess_Repeatable(t *testing.T) {
	skipOnWindows(t)

	var first, second bytes.Buffer

	p := shProcess("repeat", "echo same")

	p.Stdout = &first
	p.Execute(context.Background())

	p.Stdout = &second
	p.Execute(context.Background())

	assert.Equal(t, first.String(), second.String())
}
