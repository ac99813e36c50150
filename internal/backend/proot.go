// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/interpreter"
	"github.com/matt-FFFFFF/scriptrun/internal/policy"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

const (
	// DefaultProotBinary is the proot-distro executable name.
	DefaultProotBinary = "proot-distro"
	// DefaultDistro is the container used when none is configured.
	DefaultDistro = "ubuntu"
	// DefaultDistroShell runs commands inside the container.
	DefaultDistroShell = "/bin/bash"

	prootLogin   = "login"
	prootList    = "list"
	prootWorkDir = "--work-dir"
	prootEnv     = "--env"
)

var (
	// ErrDistroNotInstalled is returned when the configured distro is not installed.
	ErrDistroNotInstalled = errors.New("distro is not installed")
	// ErrProotUnavailable is returned when proot-distro cannot be found or run.
	ErrProotUnavailable = errors.New("proot-distro is not available")
)

var _ Executor = (*Proot)(nil)

// Locator finds executables.
type Locator interface {
	Locate(command string) (string, error)
}

// Proot runs commands inside a proot-distro container, Ubuntu by default.
type Proot struct {
	Binary     string  // Defaults to DefaultProotBinary.
	Distro     string  // Defaults to DefaultDistro.
	Shell      string  // Defaults to DefaultDistroShell.
	Locator    Locator // Defaults to a PATH search.
	Policy     policy.Policy
	MaxCapture int64
}

// Name implements Executor.
func (p *Proot) Name() string {
	return p.distro()
}

// Execute implements Executor.
func (p *Proot) Execute(ctx context.Context, req Request) *runner.Result {
	if strings.TrimSpace(req.Command) == "" {
		return failed(req, errors.Join(runner.ErrCouldNotStartProcess, ErrEmptyCommand))
	}

	if err := p.Policy.CheckCommand(req.Command); err != nil {
		return failed(req, errors.Join(runner.ErrCouldNotStartProcess, err))
	}

	bin, err := p.binary()
	if err != nil {
		return failed(req, errors.Join(runner.ErrCouldNotStartProcess, err))
	}

	shell := p.Shell
	if shell == "" {
		shell = DefaultDistroShell
	}

	ctxlog.Debug(ctx, "executing in container", "distro", p.distro(), "command", req.Command)

	args := append(loginArgs(p.distro(), req), "--", shell, commandSwitchUnix, req.Command)

	// Cwd and Env belong to the container, proot-distro itself runs from here.
	host := req
	host.Cwd = ""
	host.Env = nil

	return process(host, bin, args, p.MaxCapture).Execute(ctx)
}

// loginArgs returns the "proot-distro login" arguments that come before "--".
func loginArgs(distro string, req Request) []string {
	args := []string{prootLogin, distro}

	if req.Cwd != "" {
		args = append(args, prootWorkDir, req.Cwd)
	}

	for _, k := range slices.Sorted(maps.Keys(req.Env)) {
		args = append(args, prootEnv, k+"="+req.Env[k])
	}

	return args
}

// Installed reports whether the distro appears in the output of "proot-distro list".
func (p *Proot) Installed(ctx context.Context) (bool, error) {
	bin, err := p.binary()
	if err != nil {
		return false, err
	}

	res := (&runner.Process{
		BaseCommand: &runner.BaseCommand{Label: "proot-distro list"},
		Path:        bin,
		Args:        []string{prootList},
	}).Execute(ctx)

	if res.Status != runner.StatusSuccess {
		return false, errors.Join(ErrProotUnavailable, res.Error)
	}

	// Older releases print the list on stderr.
	out := strings.ToLower(string(res.StdOut) + string(res.StdErr))

	return strings.Contains(out, strings.ToLower(p.distro())), nil
}

// Ensure returns ErrDistroNotInstalled unless the distro is installed.
func (p *Proot) Ensure(ctx context.Context) error {
	ok, err := p.Installed(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %s (run \"%s install %s\")", ErrDistroNotInstalled, p.distro(), DefaultProotBinary, p.distro())
	}

	return nil
}

func (p *Proot) distro() string {
	if p.Distro == "" {
		return DefaultDistro
	}

	return p.Distro
}

func (p *Proot) binary() (string, error) {
	bin := p.Binary
	if bin == "" {
		bin = DefaultProotBinary
	}

	loc := p.Locator
	if loc == nil {
		loc = interpreter.NewRegistry()
	}

	path, err := loc.Locate(bin)
	if err != nil {
		return "", errors.Join(ErrProotUnavailable, err)
	}

	return path, nil
}
