// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package setup installs the packages and repositories listed in the config file.
package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	setupplan "github.com/matt-FFFFFF/scriptrun/internal/setup"
	"github.com/urfave/cli/v3"
)

// SetupCmd installs packages and clones repositories.
var SetupCmd = &cli.Command{
	Name:  "setup",
	Usage: "Install the packages and clone the repositories from the config file",
	Description: `Install the packages in setup.packages with the package manager
(pkg unless setup.package_manager says otherwise), then fetch every
setup.repository with go-getter. Repositories whose destination already
exists are skipped, so setup can be run again safely.

The install command is not checked against allowed_commands.`,
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	exec := &backend.Local{MaxCapture: cfg.MaxCaptureBytes}

	plan, err := setupplan.Plan(cfg.Setup, exec)
	if errors.Is(err, setupplan.ErrNothingToDo) {
		_, _ = fmt.Fprintln(cmdstate.Stdout(cmd), "Nothing to set up: add packages or repositories to the setup section of the config file.")
		return nil
	}

	if err != nil {
		return cmdstate.Fail(ctx, "failed to plan setup", err)
	}

	res := plan.Run(ctx)

	opts := runner.DefaultOutputOptions()
	opts.ShowSuccessDetails = true

	if err := runner.WriteResults(cmdstate.Stdout(cmd), res, opts); err != nil {
		return cmdstate.Fail(ctx, "failed to write results", err)
	}

	if res.HasError() {
		return cli.Exit("", 1)
	}

	return nil
}
