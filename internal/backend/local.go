// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/policy"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

const (
	goosWindows          = "windows"    // goosWindows is the string constant for Windows OS from the runtime package.
	commandSwitchWindows = "/C"         // Command switch for Windows cmd.exe
	commandSwitchUnix    = "-c"         // Command switch for Unix-like shells
	winSystem32          = "System32"   // System32 is the directory where cmd.exe is located on Windows.
	cmdExe               = "cmd.exe"    // cmdExe is the name of the command interpreter executable on Windows.
	binSh                = "/bin/sh"    // Default shell for Unix-like systems.
	winSystemRootEnv     = "SystemRoot" // Environment variable for Windows system root directory.
)

var _ Executor = (*Local)(nil)

// Local runs commands through the user's shell on this machine.
type Local struct {
	Shell      string // Defaults to $SHELL, then /bin/sh (cmd.exe on Windows).
	Policy     policy.Policy
	MaxCapture int64
}

// Name implements Executor.
func (l *Local) Name() string {
	return "local"
}

// Execute implements Executor.
func (l *Local) Execute(ctx context.Context, req Request) *runner.Result {
	if strings.TrimSpace(req.Command) == "" {
		return failed(req, errors.Join(runner.ErrCouldNotStartProcess, ErrEmptyCommand))
	}

	if err := l.Policy.CheckCommand(req.Command); err != nil {
		return failed(req, errors.Join(runner.ErrCouldNotStartProcess, err))
	}

	shell := l.Shell
	if shell == "" {
		shell = defaultShell(ctx)
	}

	cmdSwitch := commandSwitchUnix
	if runtime.GOOS == goosWindows {
		cmdSwitch = commandSwitchWindows
	}

	ctxlog.Debug(ctx, "executing locally", "shell", shell, "command", req.Command)

	return process(req, shell, []string{cmdSwitch, req.Command}, l.MaxCapture).Execute(ctx)
}

func defaultShell(ctx context.Context) string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "Using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}
