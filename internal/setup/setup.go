// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package setup prepares a device for running scripts: it installs packages
// with the system package manager and clones the configured repositories.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/fetch"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

// DefaultPackageManager is the Termux package manager.
const DefaultPackageManager = "pkg"

// ErrNothingToDo is returned when the config has no packages or repositories.
var ErrNothingToDo = errors.New("no packages or repositories configured")

// ErrDestinationExists is set on the skipped result of a clone whose destination already exists.
var ErrDestinationExists = errors.New("destination already exists")

// Plan returns the batch that installs cfg's packages and then clones its repositories.
// Commands go through exec, which should normally be a backend.Local without a policy.
func Plan(cfg *config.SetupConfig, exec backend.Executor) (runner.Runnable, error) {
	if cfg == nil || (len(cfg.Packages) == 0 && len(cfg.Repositories) == 0) {
		return nil, ErrNothingToDo
	}

	var steps []runner.Runnable

	if len(cfg.Packages) > 0 {
		pm := cfg.PackageManager
		if pm == "" {
			pm = DefaultPackageManager
		}

		steps = append(steps, backend.NewStep(exec, backend.Request{
			Label:   "install packages",
			Command: fmt.Sprintf("%s install -y %s", pm, strings.Join(cfg.Packages, " ")),
		}))
	}

	for _, r := range cfg.Repositories {
		steps = append(steps, NewClone(r.URL, r.Dest))
	}

	return &runner.SerialBatch{
		BaseCommand: &runner.BaseCommand{Label: "setup"},
		Commands:    steps,
	}, nil
}

var _ runner.Runnable = (*Clone)(nil)

// Clone downloads a repository unless its destination already exists.
type Clone struct {
	*runner.BaseCommand
	Src  string
	Dest string
	Get  func(ctx context.Context, src, dst string) error // Defaults to fetch.Dir.
}

// NewClone returns a Clone labelled with its destination.
func NewClone(src, dest string) *Clone {
	return &Clone{
		BaseCommand: &runner.BaseCommand{Label: "clone " + dest},
		Src:         src,
		Dest:        dest,
		Get:         fetch.Dir,
	}
}

// Run implements runner.Runnable.
func (c *Clone) Run(ctx context.Context) runner.Results {
	start := time.Now()
	res := &runner.Result{Label: c.GetLabel()}
	path := []string{c.GetLabel()}

	dest, err := expandHome(c.Dest)
	if err == nil {
		_, err = os.Stat(dest)
	}

	switch {
	case err == nil:
		ctxlog.Info(ctx, "destination exists, skipping clone", "dest", dest)

		res.Status = runner.StatusSkipped
		res.Error = fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		progress.Emit(c.Reporter(), progress.Event{Path: path, Type: progress.EventSkipped, Err: res.Error})

		return runner.Results{res}
	case !errors.Is(err, os.ErrNotExist):
		res.Status = runner.StatusError
		res.ExitCode = -1
		res.Error = err
		progress.Emit(c.Reporter(), progress.Event{Path: path, Type: progress.EventFailed, Err: err})

		return runner.Results{res}
	}

	progress.Emit(c.Reporter(), progress.Event{Path: path, Type: progress.EventStarted})

	get := c.Get
	if get == nil {
		get = fetch.Dir
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	err = get(ctx, c.Src, dest)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = runner.StatusError
		res.ExitCode = -1
		res.Error = err
		progress.Emit(c.Reporter(), progress.Event{Path: path, Type: progress.EventFailed, Err: err})

		return runner.Results{res}
	}

	res.Status = runner.StatusSuccess
	progress.Emit(c.Reporter(), progress.Event{Path: path, Type: progress.EventCompleted})

	return runner.Results{res}
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
