// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the scriptrun command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/scriptrun"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/batch"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/interpreters"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/runscript"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/setup"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/shell"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/ubuntu"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/watch"
	"github.com/matt-FFFFFF/scriptrun/internal/color"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// ErrOpenLogFile is returned when the --log-file cannot be opened.
var ErrOpenLogFile = errors.New("failed to open log file")

// newRootCmd returns the root command writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cli.Command {
	var logFile *os.File

	return &cli.Command{
		Commands: []*cli.Command{
			batch.BatchCmd,
			ubuntu.UbuntuCmd,
			shell.ShellCmd,
			watch.WatchCmd,
			setup.SetupCmd,
			interpreters.InterpretersCmd,
		},
		Writer:    stdout,
		ErrWriter: stderr,
		Name:      "scriptrun",
		Description: `scriptrun runs a script with the interpreter that suits it and streams its output.

The interpreter is chosen from --interpreter, then the file extension
(.js .mjs .cjs node, .py python3, .sh .bash bash, .ps1 pwsh), then the shebang line,
then the default interpreter (node). Script paths may also be go-getter
sources, which are downloaded to a temporary directory first.

A script that fails to start or exits non-zero is reported on stderr and
scriptrun still exits 0, unless --propagate-exit-code is set.
Run without a path, scriptrun does nothing.`,
		Usage:     "scriptrun [flags] [PATH] [-- ARGS...]",
		ArgsUsage: "[PATH] [-- ARGS...]",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		Version:               fmt.Sprintf("%s (commit: %s)", scriptrun.Version, scriptrun.Commit),
		Flags:                 slices.Concat(cmdstate.GlobalFlags(), runscript.Flags()),
		Action:                runscript.Action,
		EnableShellCompletion: true,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool(cmdstate.NoColorFlag) {
				color.SetEnabled(false)
			}

			name := cmd.String(cmdstate.LogFileFlag)
			if name == "" {
				return ctx, nil
			}

			f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:mnd
			if err != nil {
				return ctx, errors.Join(ErrOpenLogFile, err)
			}

			logFile = f

			return ctxlog.WithFile(ctx, f), nil
		},
		After: func(_ context.Context, _ *cli.Command) error {
			if logFile != nil {
				return logFile.Close() //nolint:wrapcheck
			}

			return nil
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	ctx = ctxlog.WithRunID(ctx, uuid.NewString())

	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	err := newRootCmd(os.Stdout, os.Stderr).Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
