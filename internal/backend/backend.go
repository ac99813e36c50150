// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package backend executes shell commands on behalf of the caller, either on
// the local machine or inside a proot-distro container.
//
// Every executor takes a Request and returns a typed runner.Result. Failures,
// including timeouts and launch errors, are part of the result.
package backend

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

// ErrEmptyCommand is returned when a request has no command.
var ErrEmptyCommand = errors.New("command is empty")

// Request describes one command to execute.
type Request struct {
	Label   string            // Display label, defaults to Command.
	Command string            // Shell command line.
	Cwd     string            // Working directory, empty for the current one.
	Env     map[string]string // Added to the inherited environment.
	Timeout time.Duration     // Zero means no timeout.

	Stdout   io.Writer         // Live stdout, may be nil.
	Stderr   io.Writer         // Live stderr, may be nil.
	Reporter progress.Reporter // May be nil.
}

func (r Request) label() string {
	if r.Label != "" {
		return r.Label
	}

	return r.Command
}

// Executor runs requests.
type Executor interface {
	// Name identifies the executor in logs and output.
	Name() string
	// Execute runs the request. It never returns nil.
	Execute(ctx context.Context, req Request) *runner.Result
}

// failed builds the result for a request that never started.
func failed(req Request, err error) *runner.Result {
	res := &runner.Result{
		Label:    req.label(),
		Status:   runner.StatusError,
		ExitCode: -1,
		Error:    err,
	}

	progress.Emit(req.Reporter, progress.Event{
		Path:     []string{req.label()},
		Type:     progress.EventFailed,
		ExitCode: res.ExitCode,
		Err:      err,
	})

	return res
}

// process builds the runner.Process for req.
func process(req Request, path string, args []string, maxCapture int64) *runner.Process {
	p := &runner.Process{
		BaseCommand: &runner.BaseCommand{
			Label:   req.label(),
			Cwd:     req.Cwd,
			Env:     req.Env,
			Timeout: req.Timeout,
		},
		Path:            path,
		Args:            args,
		Stdout:          req.Stdout,
		Stderr:          req.Stderr,
		MaxCapture:      maxCapture,
		// A group lets a timeout kill the whole pipeline, but stops the
		// command reading from the terminal, so only use one when needed.
		NewProcessGroup: req.Timeout > 0,
	}
	p.SetReporter(req.Reporter)

	return p
}
