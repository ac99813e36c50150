// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"maps"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/progress"
)

// Runnable is anything that can be executed as a step: a process, a script or a batch.
type Runnable interface {
	// Run executes the step and returns its results. It must not panic on failure.
	Run(ctx context.Context) Results
	// GetLabel returns the display label.
	GetLabel() string
	// InheritEnv adds variables that are not already set on the step.
	InheritEnv(env map[string]string)
	// SetReporter sets where progress events are sent. A nil reporter disables them.
	SetReporter(r progress.Reporter)
	// ContinueOnError reports whether a serial batch keeps going after this step fails.
	ContinueOnError() bool
}

// BaseCommand holds the fields common to every Runnable and is embedded by them.
type BaseCommand struct {
	Label        string
	Cwd          string
	Env          map[string]string
	Timeout      time.Duration // Zero means no timeout.
	AllowFailure bool
	reporter     progress.Reporter
}

// GetLabel returns the label, or "[unnamed]".
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "[unnamed]"
	}

	return c.Label
}

// InheritEnv adds variables from env that are not already set.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(env) == 0 {
		return
	}

	if c.Env == nil {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range env {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// SetReporter implements Runnable.
func (c *BaseCommand) SetReporter(r progress.Reporter) {
	c.reporter = r
}

// Reporter returns the reporter set by SetReporter, possibly nil.
func (c *BaseCommand) Reporter() progress.Reporter {
	return c.reporter
}

// ContinueOnError implements Runnable.
func (c *BaseCommand) ContinueOnError() bool {
	return c.AllowFailure
}

func (c *BaseCommand) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.Timeout)
}

func (c *BaseCommand) emit(e progress.Event) {
	if len(e.Path) == 0 {
		e.Path = []string{c.GetLabel()}
	}

	progress.Emit(c.reporter, e)
}

// emitResult sends the terminal event matching res.
func (c *BaseCommand) emitResult(res *Result) {
	e := progress.Event{ExitCode: res.ExitCode, Err: res.Error}

	switch {
	case res.Status == StatusSuccess:
		e.Type = progress.EventCompleted
	case res.Status == StatusSkipped:
		e.Type = progress.EventSkipped
	default:
		e.Type = progress.EventFailed
	}

	c.emit(e)
}
