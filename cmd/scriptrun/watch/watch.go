// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch re-runs a script whenever it changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/runscript"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/fetch"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	filewatch "github.com/matt-FFFFFF/scriptrun/internal/watch"
	"github.com/urfave/cli/v3"
)

const debounceFlag = "debounce"

var (
	// ErrNoPath is returned when no script path is given.
	ErrNoPath = errors.New("a script path is required")
	// ErrRemotePath is returned for go-getter sources, which have no local file to watch.
	ErrRemotePath = errors.New("remote scripts cannot be watched")
)

// WatchCmd runs a script, then runs it again each time the file is saved.
var WatchCmd = &cli.Command{
	Name:      "watch",
	Usage:     "Run a script and run it again whenever it changes",
	ArgsUsage: "PATH [-- ARGS...]",
	Description: `Run the script once, then again every time the file is written or replaced.
Failures are reported and watching continues. Press Ctrl+C to stop.
Accepts the same flags as running a script directly.`,
	Flags: append([]cli.Flag{
		&cli.DurationFlag{
			Name:  debounceFlag,
			Usage: "Wait this long after a change before running",
			Value: filewatch.DefaultDebounce,
		},
	}, runscript.Flags()...),
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	path, args, ok := runscript.SplitArgs(cmd.Args().Slice())
	if !ok {
		return cmdstate.Fail(ctx, "nothing to watch", ErrNoPath)
	}

	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	first, err := runscript.NewCommand(cmd, cfg, path, args)
	if err != nil {
		return cmdstate.Fail(ctx, "invalid options", err)
	}

	target, err := watchPath(path, first.Cwd)
	if err != nil {
		return cmdstate.Fail(ctx, "nothing to watch", err)
	}

	w := &filewatch.Watcher{
		Path:     target,
		Debounce: cmd.Duration(debounceFlag),
		OnChange: func(ctx context.Context) {
			c, err := runscript.NewCommand(cmd, cfg, path, args)
			if err != nil {
				ctxlog.Error(ctx, "invalid options", "error", err.Error())
				return
			}

			runner.Report(cmdstate.Stderr(cmd), c.Execute(ctx))
		},
	}

	if err := w.Run(ctx); err != nil {
		return cmdstate.Fail(ctx, "watch failed", err)
	}

	return nil
}

// watchPath returns the file the script command will open, so that the
// watcher and the run agree when --cwd is set.
func watchPath(path, cwd string) (string, error) {
	if fetch.IsRemote(path) {
		return "", fmt.Errorf("%w: %s", ErrRemotePath, path)
	}

	if !filepath.IsAbs(path) && cwd != "" {
		path = filepath.Join(cwd, path)
	}

	return filepath.Abs(path) //nolint:wrapcheck
}
