// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker subscribes to the signals that should stop a running script.
// By default these are SIGINT, SIGTERM and SIGQUIT.
//
// Watch cancels a context once the same signal has been received twice; the
// first signal is left for the child process, which receives it directly from
// the runner.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New returns a buffered channel subscribed to sigs, or to the termination
// signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "subscribing to signals", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unsubscribes ch. It is safe to call on a channel New did not create.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
