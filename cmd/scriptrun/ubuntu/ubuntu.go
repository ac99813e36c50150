// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ubuntu runs commands in the proot-distro Ubuntu container.
package ubuntu

import (
	"context"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/urfave/cli/v3"
)

const (
	timeoutFlag           = "timeout"
	cwdFlag               = "cwd"
	propagateExitCodeFlag = "propagate-exit-code"
)

// UbuntuCmd runs a command inside the container.
var UbuntuCmd = &cli.Command{
	Name:      "ubuntu",
	Usage:     "Run a command in the proot-distro Ubuntu container",
	ArgsUsage: "COMMAND...",
	Description: `Run a shell command inside the proot-distro container, Ubuntu unless the
config file names another distro. The arguments are joined with spaces and
run with the container shell's -c option, so quote anything the shell
should not split, and put commands with their own flags after "--":

    scriptrun ubuntu -- ls -la /root

Commands are checked against allowed_commands from the config file.`,
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:    timeoutFlag,
			Aliases: []string{"t"},
			Usage:   "Kill the command after this long, e.g. 30s",
		},
		&cli.StringFlag{
			Name:     cwdFlag,
			Usage:    "Working directory inside the container",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:    cmdstate.EnvFlag,
			Aliases: []string{"e"},
			Usage:   "Set an environment variable, KEY=VALUE. Repeatable.",
		},
		&cli.BoolFlag{
			Name:        propagateExitCodeFlag,
			Usage:       "Exit with the command's exit code instead of 0 when it fails",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Commands: []*cli.Command{statusCmd},
	Action:   actionFunc,
}

var statusCmd = &cli.Command{
	Name:  "status",
	Usage: "Report whether proot-distro and the container are installed",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := cmdstate.Config(ctx, cmd)
		if err != nil {
			return cmdstate.Fail(ctx, "failed to load config", err)
		}

		p := cfg.Proot()

		ok, err := p.Installed(ctx)
		if err != nil {
			return cmdstate.Fail(ctx, "failed to query proot-distro", err)
		}

		state := "not installed"
		if ok {
			state = "installed"
		}

		_, _ = fmt.Fprintf(cmdstate.Stdout(cmd), "%s: %s\n", p.Name(), state)

		return nil
	},
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	if len(args) == 0 {
		return nil
	}

	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	env, err := cmdstate.Env(cfg.Env, cmd.StringSlice(cmdstate.EnvFlag))
	if err != nil {
		return cmdstate.Fail(ctx, "invalid options", err)
	}

	timeout := cmd.Duration(timeoutFlag)
	if timeout == 0 {
		if timeout, err = cfg.TimeoutDuration(); err != nil {
			return cmdstate.Fail(ctx, "invalid options", err)
		}
	}

	res := Run(ctx, cfg.Proot(), backend.Request{
		Command: strings.Join(args, " "),
		Cwd:     cmd.String(cwdFlag),
		Env:     env,
		Timeout: timeout,
		Stdout:  cmdstate.Stdout(cmd),
		Stderr:  cmdstate.Stderr(cmd),
	})

	if res.Failed() && cmd.Bool(propagateExitCodeFlag) {
		return cli.Exit("", max(res.ExitCode, 1))
	}

	return nil
}

// Run executes req and reports a failure on req.Stderr.
func Run(ctx context.Context, exec backend.Executor, req backend.Request) *runner.Result {
	res := exec.Execute(ctx, req)
	if req.Stderr != nil {
		runner.Report(req.Stderr, res)
	}

	return res
}
