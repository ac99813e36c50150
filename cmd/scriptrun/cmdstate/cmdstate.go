// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate holds the flags and helpers shared by every scriptrun command.
package cmdstate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	// ConfigFlag is the persistent flag naming an explicit config file.
	ConfigFlag = "config"
	// LogFileFlag is the persistent flag naming a JSON log file.
	LogFileFlag = "log-file"
	// NoColorFlag disables colour output.
	NoColorFlag = "no-color"
	// EnvFlag is the repeatable KEY=VALUE flag.
	EnvFlag = "env"

	cliExitStr = ""
)

// ErrInvalidEnv is returned when an --env value is not KEY=VALUE.
var ErrInvalidEnv = errors.New("invalid environment variable, expected KEY=VALUE")

// GlobalFlags returns the flags accepted by the root command and inherited by every subcommand.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      ConfigFlag,
			Aliases:   []string{"c"},
			Usage:     "Path to a config file. Defaults to .scriptrun.yaml, .scriptrun.yml or .scriptrun.hcl in the working directory, then $HOME.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      LogFileFlag,
			Usage:     "Also write logs as JSON to this file",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:        NoColorFlag,
			Usage:       "Disable coloured output",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

// Config loads and validates the configuration selected by the --config flag.
func Config(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg, path, err := config.Resolve(ctx, cmd.String(ConfigFlag))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if path != "" {
		ctxlog.Debug(ctx, "loaded config", "path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Env merges base with the KEY=VALUE pairs of the --env flag, which win.
func Env(base map[string]string, pairs []string) (map[string]string, error) {
	env := maps.Clone(base)
	if env == nil {
		env = make(map[string]string, len(pairs))
	}

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, p)
		}

		env[k] = v
	}

	return env, nil
}

// Stdout returns the writer for normal output of the root command.
func Stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// Stderr returns the writer for error output of the root command.
func Stderr(cmd *cli.Command) io.Writer {
	return cmd.Root().ErrWriter
}

// Fail logs msg with err and returns an exit error with status 1.
func Fail(ctx context.Context, msg string, err error) error {
	ctxlog.Error(ctx, msg, "error", err.Error())
	return cli.Exit(cliExitStr, 1)
}
