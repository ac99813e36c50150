// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runscript is the root action of scriptrun: run one script with the
// interpreter chosen for it and stream its output.
package runscript

import (
	"context"
	"time"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/matt-FFFFFF/scriptrun/internal/script"
	"github.com/urfave/cli/v3"
)

const (
	interpreterFlag       = "interpreter"
	timeoutFlag           = "timeout"
	cwdFlag               = "cwd"
	envFileFlag           = "env-file"
	propagateExitCodeFlag = "propagate-exit-code"
	argsSeparator         = "--"
)

// Flags returns new instances of the flags that configure how a script is run.
// Flags hold their parsed values, so each command needs its own. They are
// local so that subcommands of the root command do not inherit them.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     interpreterFlag,
			Aliases:  []string{"i"},
			Usage:    "Interpreter command line to use instead of choosing one from the extension or shebang, e.g. \"python3 -u\"",
			OnlyOnce: true,
			Local:    true,
		},
		&cli.DurationFlag{
			Name:    timeoutFlag,
			Aliases: []string{"t"},
			Usage:   "Kill the script after this long, e.g. 30s. Zero uses the config file value; no value means no timeout.",
			Local:   true,
		},
		&cli.StringFlag{
			Name:      cwdFlag,
			Usage:     "Working directory for the script",
			TakesFile: true,
			OnlyOnce:  true,
			Local:     true,
		},
		&cli.StringSliceFlag{
			Name:    cmdstate.EnvFlag,
			Aliases: []string{"e"},
			Usage:   "Set an environment variable for the script, KEY=VALUE. Repeatable.",
			Local:   true,
		},
		&cli.StringSliceFlag{
			Name:      envFileFlag,
			Usage:     "Load environment variables from a dotenv file. Repeatable; --env wins on conflicts.",
			TakesFile: true,
			Local:     true,
		},
		&cli.BoolFlag{
			Name:        propagateExitCodeFlag,
			Usage:       "Exit with the script's exit code instead of 0 when it fails",
			DefaultText: "false",
			OnlyOnce:    true,
			Local:       true,
		},
	}
}

// Action runs the script named by the first argument. Without an argument it
// does nothing and writes nothing. A failed script is reported on stderr and,
// unless --propagate-exit-code is set, does not change the exit status.
func Action(ctx context.Context, cmd *cli.Command) error {
	path, args, ok := SplitArgs(cmd.Args().Slice())
	if !ok {
		return nil
	}

	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	c, err := NewCommand(cmd, cfg, path, args)
	if err != nil {
		return cmdstate.Fail(ctx, "invalid options", err)
	}

	ctxlog.Debug(ctx, "running script", "path", path, "args", args)

	res := c.Execute(ctx)
	runner.Report(cmdstate.Stderr(cmd), res)

	if res.Failed() && cmd.Bool(propagateExitCodeFlag) {
		code := res.ExitCode
		if code <= 0 {
			code = 1
		}

		return cli.Exit("", code)
	}

	return nil
}

// SplitArgs returns the script path and the arguments for the script.
// A "--" directly after the path is dropped. ok is false when there is no path.
func SplitArgs(args []string) (path string, rest []string, ok bool) {
	if len(args) > 0 && args[0] == argsSeparator {
		args = args[1:]
	}

	if len(args) == 0 || args[0] == "" {
		return "", nil, false
	}

	rest = args[1:]
	if len(rest) > 0 && rest[0] == argsSeparator {
		rest = rest[1:]
	}

	return args[0], rest, true
}

// NewCommand builds the script command from the flags returned by Flags and the config.
// Live output goes to the root command's writers.
func NewCommand(cmd *cli.Command, cfg *config.Config, path string, args []string) (*script.Command, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	env, err := cmdstate.Env(cfg.Env, cmd.StringSlice(cmdstate.EnvFlag))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	timeout := cmd.Duration(timeoutFlag)
	if timeout == 0 {
		if timeout, err = cfg.TimeoutDuration(); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	c := script.New(path, args...)
	c.Cwd = cmd.String(cwdFlag)
	c.Env = env
	c.Timeout = timeout
	c.Interpreter = cmd.String(interpreterFlag)
	c.EnvFiles = cmd.StringSlice(envFileFlag)
	c.Registry = reg
	c.Policy = cfg.Policy()
	c.Stdout = cmdstate.Stdout(cmd)
	c.Stderr = cmdstate.Stderr(cmd)
	c.MaxCapture = cfg.MaxCaptureBytes
	// A process group lets a timeout kill grandchildren too, but detaches the
	// script from terminal input.
	c.NewProcessGroup = timeout > time.Duration(0)

	return c, nil
}
