// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"golang.org/x/sync/errgroup"
)

var (
	_ Runnable = (*SerialBatch)(nil)
	_ Runnable = (*ParallelBatch)(nil)
)

// SerialBatch runs its commands one after another.
// Once a command fails, the rest are skipped unless that command allows failure.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable
}

// Run implements Runnable.
func (b *SerialBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).With("runnableType", "SerialBatch", "label", b.GetLabel())
	start := time.Now()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	children := make(Results, 0, len(b.Commands))
	reporter := progress.Under(b.Reporter(), b.GetLabel())

	var stopReason error

	for _, cmd := range b.Commands {
		cmd.InheritEnv(b.Env)
		cmd.SetReporter(reporter)

		if stopReason == nil && ctx.Err() != nil {
			stopReason = ErrSkipCancelled
		}

		if stopReason != nil {
			logger.Debug("skipping command", "command", cmd.GetLabel(), "reason", stopReason)
			children = append(children, skip(reporter, cmd, stopReason))

			continue
		}

		res := cmd.Run(ctx)
		children = append(children, res...)

		if res.HasError() && !cmd.ContinueOnError() {
			logger.Debug("command failed, skipping the rest", "command", cmd.GetLabel())
			stopReason = ErrSkipOnError
		}
	}

	return Results{b.aggregate(children, time.Since(start))}
}

// ParallelBatch runs its commands concurrently, at most Limit at a time when Limit is positive.
type ParallelBatch struct {
	*BaseCommand
	Commands []Runnable
	Limit    int
}

// Run implements Runnable.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).With("runnableType", "ParallelBatch", "label", b.GetLabel())
	start := time.Now()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	reporter := progress.Under(b.Reporter(), b.GetLabel())
	perCommand := make([]Results, len(b.Commands))

	var g errgroup.Group
	if b.Limit > 0 {
		g.SetLimit(b.Limit)
	}

	for i, cmd := range b.Commands {
		cmd.InheritEnv(b.Env)
		cmd.SetReporter(reporter)

		g.Go(func() error {
			if ctx.Err() != nil {
				perCommand[i] = Results{skip(reporter, cmd, ErrSkipCancelled)}
				return nil
			}

			perCommand[i] = cmd.Run(ctx)

			return nil
		})
	}

	_ = g.Wait()

	logger.Debug("parallel batch finished", "commands", len(b.Commands))

	return Results{b.aggregate(slices.Concat(perCommand...), time.Since(start))}
}

func (c *BaseCommand) aggregate(children Results, d time.Duration) *Result {
	res := &Result{
		Label:    c.GetLabel(),
		Status:   StatusSuccess,
		Children: children,
		Duration: d,
	}

	if children.HasError() {
		res.Status = StatusError
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
	}

	return res
}

func skip(r progress.Reporter, cmd Runnable, reason error) *Result {
	res := newSkipped(cmd.GetLabel(), reason)

	progress.Emit(r, progress.Event{
		Path: []string{cmd.GetLabel()},
		Type: progress.EventSkipped,
		Err:  reason,
	})

	return res
}

// IsSkip reports whether err marks a step that never ran.
func IsSkip(err error) bool {
	return errors.Is(err, ErrSkipOnError) || errors.Is(err, ErrSkipCancelled)
}
