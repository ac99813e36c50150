// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns its lines in order, then end is returned.
type scripted struct {
	lines   []string
	end     error
	history []string
	prompts int
}

func (s *scripted) Prompt(string) (string, error) {
	s.prompts++

	if len(s.lines) == 0 {
		return "", s.end
	}

	line := s.lines[0]
	s.lines = s.lines[1:]

	return line, nil
}

func (s *scripted) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scripted) Close() error              { return nil }

// fakeExecutor succeeds for every command except "false".
type fakeExecutor struct {
	requests []backend.Request
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Execute(_ context.Context, req backend.Request) *runner.Result {
	f.requests = append(f.requests, req)

	if req.Command == "false" {
		return &runner.Result{Label: req.Command, Status: runner.StatusError, ExitCode: 1, Error: runner.ErrNonZeroExit}
	}

	_, _ = io.WriteString(req.Stdout, req.Command+"\n")

	return &runner.Result{Label: req.Command, Status: runner.StatusSuccess}
}

func TestREPL_Run(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		end      error
		wantCmds []string
		wantErr  error
	}{
		{name: "exit", lines: []string{"echo a", "", "  echo b  ", "exit", "echo never"}, wantCmds: []string{"echo a", "echo b"}},
		{name: "quit", lines: []string{"quit"}, wantCmds: nil},
		{name: "eof", lines: []string{"echo a"}, end: io.EOF, wantCmds: []string{"echo a"}},
		{name: "ctrl c", lines: []string{"echo a"}, end: liner.ErrPromptAborted, wantCmds: []string{"echo a"}},
		{name: "failure keeps going", lines: []string{"false", "echo after"}, end: io.EOF, wantCmds: []string{"false", "echo after"}},
		{name: "reader error", end: errors.New("tty gone"), wantErr: errors.New("reading input: tty gone")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			exec := &fakeExecutor{}
			r := &REPL{
				Executor: exec,
				Reader:   &scripted{lines: tc.lines, end: tc.end},
				Stdout:   &stdout,
				Stderr:   &stderr,
				Timeout:  time.Second,
			}

			err := r.Run(context.Background())
			if tc.wantErr != nil {
				require.EqualError(t, err, tc.wantErr.Error())
				return
			}

			require.NoError(t, err)

			var got []string
			for _, req := range exec.requests {
				got = append(got, req.Command)
				assert.Equal(t, time.Second, req.Timeout)
			}

			assert.Equal(t, tc.wantCmds, got)
		})
	}
}

func TestREPL_ReportsFailures(t *testing.T) {
	var stderr bytes.Buffer

	r := &REPL{
		Executor: &fakeExecutor{},
		Reader:   &scripted{lines: []string{"false"}, end: io.EOF},
		Stdout:   io.Discard,
		Stderr:   &stderr,
	}

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, stderr.String(), "false")
	assert.Contains(t, stderr.String(), "exit code")
}

func TestREPL_ChangeDir(t *testing.T) {
	dir := t.TempDir()

	var stderr bytes.Buffer

	exec := &fakeExecutor{}
	reader := &scripted{lines: []string{"cd " + dir, "pwd", "cd does-not-exist", "cd a b"}, end: io.EOF}
	r := &REPL{Executor: exec, Reader: reader, Stdout: io.Discard, Stderr: &stderr}

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, exec.requests, 1)
	assert.Equal(t, dir, exec.requests[0].Cwd)
	assert.Equal(t, dir, r.Cwd)
	assert.Contains(t, stderr.String(), "cd: ")
	assert.Contains(t, stderr.String(), "too many arguments")
	assert.Equal(t, []string{"cd " + dir, "pwd", "cd does-not-exist", "cd a b"}, reader.history)
}

func TestREPL_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &scripted{lines: []string{"echo a"}}
	r := &REPL{Executor: &fakeExecutor{}, Reader: reader, Stdout: io.Discard, Stderr: io.Discard}

	require.NoError(t, r.Run(ctx))
	assert.Zero(t, reader.prompts)
}
