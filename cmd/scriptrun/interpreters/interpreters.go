// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package interpreters lists the interpreter chosen for each file extension.
package interpreters

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/scriptrun/cmd/scriptrun/cmdstate"
	"github.com/matt-FFFFFF/scriptrun/internal/color"
	"github.com/matt-FFFFFF/scriptrun/internal/interpreter"
	"github.com/urfave/cli/v3"
)

const notFound = "(not found)"

// InterpretersCmd prints the extension table and where each interpreter was found.
var InterpretersCmd = &cli.Command{
	Name:  "interpreters",
	Usage: "List the interpreter used for each file extension",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := cmdstate.Config(ctx, cmd)
		if err != nil {
			return cmdstate.Fail(ctx, "failed to load config", err)
		}

		reg, err := cfg.Registry()
		if err != nil {
			return cmdstate.Fail(ctx, "invalid config", err)
		}

		return Write(cmdstate.Stdout(cmd), reg)
	},
}

// Write prints one line per extension, then the default interpreter.
func Write(w io.Writer, reg *interpreter.Registry) error {
	for _, ext := range reg.Extensions() {
		i, _ := reg.Lookup(ext)
		if err := writeLine(w, ext, i, reg); err != nil {
			return err
		}
	}

	return writeLine(w, "default", reg.Fallback(), reg)
}

func writeLine(w io.Writer, key string, i interpreter.Interpreter, reg *interpreter.Registry) error {
	path, err := reg.Locate(i.Command)
	if err != nil {
		path = color.Colorize(notFound, color.FgYellow)
	}

	_, err = fmt.Fprintf(w, "%-8s %-20s %s\n", key, i.String(), path)

	return err //nolint:wrapcheck
}
