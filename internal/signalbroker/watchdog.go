// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx is done.
// The second delivery of a given signal cancels the context and closes sigCh.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Info(ctx, "second signal received, cancelling", "signal", sig.String())
				Stop(sigCh)
				close(sigCh)
				cancel()

				return
			}

			ctxlog.Info(ctx, "signal received, waiting for child to exit", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
