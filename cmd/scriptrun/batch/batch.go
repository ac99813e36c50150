// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batch runs the steps of one or more manifest files.
package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/manifest"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/matt-FFFFFF/scriptrun/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag                 = "file"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	streamFlag               = "stream"
	tuiFlag                  = "tui"
	aggregateLabel           = "Aggregate"
	cliExitStr               = ""
)

// ErrNoManifest is returned when no manifest is given.
var ErrNoManifest = errors.New("specify at least one manifest with --file or -f")

// BatchCmd runs the steps of one or more manifests.
var BatchCmd = &cli.Command{
	Name:  "batch",
	Usage: "Run the steps of a YAML or HCL manifest",
	Description: `Run the steps defined in a manifest file, serially or in parallel.

Each step runs exactly one of a script (with interpreter selection), a shell
command, or a command in the Ubuntu container. Manifest sources use
Hashicorp's go-getter syntax, so they may be local paths or remote URLs.
See https://github.com/hashicorp/go-getter.

Results are printed once all steps have finished. Use --stream to see step
output as it is written, or --tui for a live view.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:      fileFlag,
			Aliases:   []string{"f"},
			Usage:     "Manifest to run. Specify multiple times to run several manifests in turn.",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include successful results in the output",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        noOutputStdErrFlag,
			Aliases:     []string{"no-stderr"},
			Usage:       "Exclude stderr output in the results",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        outputStdOutFlag,
			Aliases:     []string{"stdout"},
			Usage:       "Include stdout output in the results",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        streamFlag,
			Usage:       "Write step output to the terminal while the steps run",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"interactive"},
			Usage:       "Run with an interactive terminal UI showing live progress",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running batch command")

	files := cmd.StringSlice(fileFlag)
	if len(files) == 0 {
		return cmdstate.Fail(ctx, "no manifest", ErrNoManifest)
	}

	cfg, err := cmdstate.Config(ctx, cmd)
	if err != nil {
		return cmdstate.Fail(ctx, "failed to load config", err)
	}

	useTUI := cmd.Bool(tuiFlag)

	top, err := build(ctx, cmd, cfg, files, !useTUI && cmd.Bool(streamFlag))
	if err != nil {
		return cmdstate.Fail(ctx, "failed to build batch", err)
	}

	var res runner.Results

	if useTUI {
		logger.Info("starting interactive TUI mode")

		// Log lines would tear the UI, so hold them until it has closed.
		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.New(ctx, slog.New(ctxlog.NewPrettyHandler(
			&slog.HandlerOptions{Level: ctxlog.LevelVar},
			ctxlog.WithDestinationWriter(buf),
		)))

		var execErr error

		res, execErr = tui.NewRunner(top.GetLabel(), tui.WithProgramOptions(tea.WithAltScreen())).Run(tuiCtx, top)

		buf.WriteTo(cmdstate.Stderr(cmd)) //nolint:errcheck

		if execErr != nil {
			logger.Error("TUI execution error", "error", execErr.Error())
		}
	} else {
		res = top.Run(ctx)
	}

	opts := runner.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := runner.WriteResults(cmdstate.Stdout(cmd), res, opts); err != nil {
		return cmdstate.Fail(ctx, "failed to write results", err)
	}

	if res.HasError() {
		logger.Error("some steps failed, see above for details")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// build loads every manifest and returns a single runnable for them.
func build(ctx context.Context, cmd *cli.Command, cfg *config.Config, files []string, stream bool) (runner.Runnable, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	opts := manifest.BuildOptions{
		Registry:   reg,
		Policy:     cfg.Policy(),
		Local:      cfg.Local(),
		Ubuntu:     cfg.Proot(),
		Env:        cfg.Env,
		MaxCapture: cfg.MaxCaptureBytes,
	}

	if stream {
		opts.Stdout = cmdstate.Stdout(cmd)
		opts.Stderr = cmdstate.Stderr(cmd)
	}

	runnables := make([]runner.Runnable, 0, len(files))

	for _, f := range files {
		m, err := manifest.Load(ctx, f)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		runnables = append(runnables, manifest.Build(m, opts))
	}

	if len(runnables) == 1 {
		return runnables[0], nil
	}

	return &runner.SerialBatch{
		BaseCommand: &runner.BaseCommand{Label: aggregateLabel},
		Commands:    runnables,
	}, nil
}
