// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shell starts an interactive prompt that runs each line as a command.
package shell

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/repl"
	"github.com/urfave/cli/v3"
)

const (
	ubuntuFlag  = "ubuntu"
	historyFile = ".scriptrun_history"
)

// ShellCmd is the interactive prompt.
var ShellCmd = &cli.Command{
	Name:  "shell",
	Usage: "Run commands interactively, locally or in the Ubuntu container",
	Description: `Start a prompt that runs each line as a shell command and prints its output.
"cd DIR" changes the working directory of later commands. Type exit or quit,
press Ctrl+C or Ctrl+D to leave. History is kept in ~/` + historyFile + `.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        ubuntuFlag,
			Aliases:     []string{"u"},
			Usage:       "Run commands in the proot-distro Ubuntu container",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return cmdstate.Fail(ctx, "invalid config", err)
	}

	var exec backend.Executor = cfg.Local()
	if cmd.Bool(ubuntuFlag) {
		p := cfg.Proot()
		if err := p.Ensure(ctx); err != nil {
			return cmdstate.Fail(ctx, "ubuntu container unavailable", err)
		}

		exec = p
	}

	reader := repl.NewLiner(historyPath())
	defer reader.Close() //nolint:errcheck

	r := &repl.REPL{
		Executor: exec,
		Reader:   reader,
		Stdout:   cmdstate.Stdout(cmd),
		Stderr:   cmdstate.Stderr(cmd),
		Env:      cfg.Env,
		Timeout:  timeout,
	}

	if err := r.Run(ctx); err != nil {
		return cmdstate.Fail(ctx, "shell failed", err)
	}

	return nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, historyFile)
}
