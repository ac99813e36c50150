// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repl is the interactive prompt behind "scriptrun shell".
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/peterh/liner"
)

// DefaultPrompt is shown before each line.
const DefaultPrompt = "scriptrun> "

// LineReader reads lines from the user.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// REPL executes each line read through an executor until the user quits.
type REPL struct {
	Executor backend.Executor
	Reader   LineReader
	Stdout   io.Writer
	Stderr   io.Writer
	Prompt   string
	Cwd      string // Changed by the "cd" built-in.
	Env      map[string]string
	Timeout  time.Duration
}

// Run reads and executes lines until exit, quit, Ctrl+C, end of input or ctx is done.
// Failed commands are reported on Stderr and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	prompt := r.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	logger := ctxlog.Logger(ctx).With("executor", r.Executor.Name())

	for ctx.Err() == nil {
		line, err := r.Reader.Prompt(prompt)

		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.Reader.AppendHistory(line)

		switch fields := strings.Fields(line); fields[0] {
		case "exit", "quit":
			return nil
		case "cd":
			r.changeDir(fields[1:])
			continue
		}

		logger.Debug("executing line", "command", line)

		res := r.Executor.Execute(ctx, backend.Request{
			Command: line,
			Cwd:     r.Cwd,
			Env:     r.Env,
			Timeout: r.Timeout,
			Stdout:  r.Stdout,
			Stderr:  r.Stderr,
		})
		runner.Report(r.Stderr, res)
	}

	return nil
}

func (r *REPL) changeDir(args []string) {
	var dir string

	switch len(args) {
	case 0:
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(r.Stderr, "cd: %v\n", err) //nolint:errcheck
			return
		}

		dir = home
	case 1:
		dir = args[0]
		if !filepath.IsAbs(dir) && r.Cwd != "" {
			dir = filepath.Join(r.Cwd, dir)
		}
	default:
		fmt.Fprintln(r.Stderr, "cd: too many arguments") //nolint:errcheck
		return
	}

	info, err := os.Stat(dir)
	if err != nil {
		fmt.Fprintf(r.Stderr, "cd: %v\n", err) //nolint:errcheck
		return
	}

	if !info.IsDir() {
		fmt.Fprintf(r.Stderr, "cd: not a directory: %s\n", dir) //nolint:errcheck
		return
	}

	r.Cwd = dir
}
