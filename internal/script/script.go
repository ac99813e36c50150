// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script runs a script file with the interpreter chosen for it.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/fetch"
	"github.com/matt-FFFFFF/scriptrun/internal/interpreter"
	"github.com/matt-FFFFFF/scriptrun/internal/policy"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

var _ runner.Runnable = (*Command)(nil)

var (
	// ErrScriptNotFound is returned when the script path does not exist.
	ErrScriptNotFound = errors.New("script not found")
	// ErrScriptIsDirectory is returned when the script path is a directory.
	ErrScriptIsDirectory = errors.New("script path is a directory")
	// ErrEnvFile is returned when an env file cannot be read.
	ErrEnvFile = errors.New("failed to read env file")
)

// Command runs one script as a child process.
// Failures of any kind are reported in the Result, never returned or panicked.
type Command struct {
	*runner.BaseCommand
	Path        string   // Local path or go-getter source.
	Args        []string // Passed to the script after its path.
	Interpreter string   // Overrides interpreter resolution when set, e.g. "python3 -u".
	EnvFiles    []string // Dotenv files loaded before Env; Env wins on conflicts.

	Registry *interpreter.Registry // Defaults to interpreter.NewRegistry().
	Policy   policy.Policy

	Stdout     io.Writer // Live stdout, may be nil.
	Stderr     io.Writer // Live stderr, may be nil.
	MaxCapture int64

	NewProcessGroup bool
}

// New returns a Command for the script at path.
func New(path string, args ...string) *Command {
	return &Command{
		BaseCommand: &runner.BaseCommand{},
		Path:        path,
		Args:        args,
	}
}

// GetLabel returns the label, or the script path when no label is set.
func (c *Command) GetLabel() string {
	if c.BaseCommand == nil || c.Label == "" {
		return c.Path
	}

	return c.Label
}

// Run implements runner.Runnable.
func (c *Command) Run(ctx context.Context) runner.Results {
	return runner.Results{c.Execute(ctx)}
}

// Execute runs the script and returns its result.
func (c *Command) Execute(ctx context.Context) *runner.Result {
	if c.BaseCommand == nil {
		c.BaseCommand = &runner.BaseCommand{}
	}

	logger := ctxlog.Logger(ctx).With("runnableType", "Script", "label", c.GetLabel())

	proc, cleanup, err := c.prepare(ctx)
	if cleanup != nil {
		defer cleanup()
	}

	if err != nil {
		logger.Debug("script could not be prepared", "error", err)
		return c.fail(err)
	}

	return proc.Execute(ctx)
}

// prepare turns the command into a process, fetching the script first if it is remote.
func (c *Command) prepare(ctx context.Context) (*runner.Process, func(), error) {
	local := c.Path

	var cleanup func()

	if fetch.IsRemote(c.Path) {
		p, clean, err := fetch.File(ctx, c.Path)
		if err != nil {
			return nil, nil, errors.Join(runner.ErrCouldNotStartProcess, err)
		}

		local, cleanup = p, clean
	} else {
		abs, err := scriptPath(local, c.Cwd)
		if err != nil {
			return nil, nil, errors.Join(runner.ErrCouldNotStartProcess, err)
		}

		local = abs
	}

	if err := checkScript(local); err != nil {
		return nil, cleanup, err
	}

	reg := c.Registry
	if reg == nil {
		reg = interpreter.NewRegistry()
	}

	in, source, err := reg.Resolve(local, c.Interpreter)
	if err != nil {
		return nil, cleanup, errors.Join(runner.ErrCouldNotStartProcess, err)
	}

	ctxlog.Debug(ctx, "interpreter resolved", "interpreter", in.String(), "source", source.String())

	if err := c.Policy.CheckInterpreter(in.Command); err != nil {
		return nil, cleanup, errors.Join(runner.ErrCouldNotStartProcess, err)
	}

	exe, err := reg.Locate(in.Command)
	if err != nil {
		return nil, cleanup, errors.Join(runner.ErrCouldNotStartProcess, err)
	}

	env, err := c.environment()
	if err != nil {
		return nil, cleanup, errors.Join(runner.ErrCouldNotStartProcess, err)
	}

	proc := &runner.Process{
		BaseCommand: &runner.BaseCommand{
			Label:        c.GetLabel(),
			Cwd:          c.Cwd,
			Env:          env,
			Timeout:      c.Timeout,
			AllowFailure: c.AllowFailure,
		},
		Path:            exe,
		Args:            in.Argv(local, c.Args...),
		Stdout:          c.Stdout,
		Stderr:          c.Stderr,
		MaxCapture:      c.MaxCapture,
		NewProcessGroup: c.NewProcessGroup,
	}
	proc.SetReporter(c.Reporter())

	return proc, cleanup, nil
}

func (c *Command) environment() (map[string]string, error) {
	env := make(map[string]string)

	if len(c.EnvFiles) > 0 {
		fromFiles, err := godotenv.Read(c.EnvFiles...)
		if err != nil {
			return nil, errors.Join(ErrEnvFile, err)
		}

		maps.Copy(env, fromFiles)
	}

	maps.Copy(env, c.Env)

	return env, nil
}

func (c *Command) fail(err error) *runner.Result {
	res := &runner.Result{
		Label:    c.GetLabel(),
		Status:   runner.StatusError,
		ExitCode: -1,
		Error:    err,
	}

	progress.Emit(c.Reporter(), progress.Event{
		Path:     []string{c.GetLabel()},
		Type:     progress.EventFailed,
		ExitCode: res.ExitCode,
		Err:      err,
	})

	return res
}

// scriptPath returns path as an absolute path. A relative path is taken
// relative to cwd, the directory the interpreter starts in, so the file that is
// checked is the file the interpreter opens.
func scriptPath(path, cwd string) (string, error) {
	if !filepath.IsAbs(path) && cwd != "" {
		path = filepath.Join(cwd, path)
	}

	return filepath.Abs(path) //nolint:wrapcheck
}

func checkScript(path string) error {
	info, err := os.Stat(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		return errors.Join(runner.ErrCouldNotStartProcess, fmt.Errorf("%w: %s", ErrScriptNotFound, path))
	case err != nil:
		return errors.Join(runner.ErrCouldNotStartProcess, err)
	case info.IsDir():
		return errors.Join(runner.ErrCouldNotStartProcess, fmt.Errorf("%w: %s", ErrScriptIsDirectory, path))
	}

	return nil
}
