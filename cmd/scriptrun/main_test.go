// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

// writeScript writes a shell script to a temp dir and isolates the test from
// any config file in $HOME.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))

	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	err := newRootCmd(&stdout, &stderr).Run(t.Context(), append([]string{"scriptrun"}, args...))

	return stdout.String(), stderr.String(), err
}

func TestRoot_NoArgumentDoesNothing(t *testing.T) {
	stdout, stderr, err := run(t)

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestRoot_RunsScript(t *testing.T) {
	skipOnWindows(t)

	path := writeScript(t, "echo hello\necho oops >&2\n")

	stdout, stderr, err := run(t, "--interpreter", "/bin/sh", path)

	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
	assert.Equal(t, "oops\n", stderr)
}

func TestRoot_PassesScriptArgs(t *testing.T) {
	skipOnWindows(t)

	path := writeScript(t, "echo \"$1-$2\"\n")

	stdout, _, err := run(t, "--interpreter", "/bin/sh", path, "--", "a", "b")

	require.NoError(t, err)
	assert.Equal(t, "a-b\n", stdout)
}

func TestRoot_EnvFlag(t *testing.T) {
	skipOnWindows(t)

	path := writeScript(t, "echo \"$GREETING\"\n")

	stdout, _, err := run(t, "--interpreter", "/bin/sh", "--env", "GREETING=hi", path)

	require.NoError(t, err)
	assert.Equal(t, "hi\n", stdout)
}

func TestRoot_FailureIsReportedNotReturned(t *testing.T) {
	skipOnWindows(t)

	path := writeScript(t, "exit 3\n")

	stdout, stderr, err := run(t, "--interpreter", "/bin/sh", path)

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.NotEmpty(t, stderr)
}

func TestRoot_MissingScript(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, stderr, err := run(t, filepath.Join(t.TempDir(), "missing.js"))

	require.NoError(t, err)
	assert.Contains(t, stderr, "could not start process")
}

func TestRoot_Repeatable(t *testing.T) {
	skipOnWindows(t)

	path := writeScript(t, "echo same\n")

	first, _, err := run(t, "--interpreter", "/bin/sh", path)
	require.NoError(t, err)

	second, _, err := run(t, "--interpreter", "/bin/sh", path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRoot_PropagateExitCode(t *testing.T) {
	skipOnWindows(t)

	var code int

	stubs := gostub.Stub(&cli.OsExiter, func(c int) { code = c })
	defer stubs.Reset()

	path := writeScript(t, "exit 3\n")

	_, _, err := run(t, "--interpreter", "/bin/sh", "--propagate-exit-code", path)

	require.Error(t, err)
	assert.Equal(t, 3, code)
}

func TestRoot_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "scriptrun.log")

	_, _, err := run(t, "--log-file", logPath)

	require.NoError(t, err)
	assert.FileExists(t, logPath)
}
