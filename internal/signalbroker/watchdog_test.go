// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatch(t *testing.T) {
	tests := []struct {
		name       string
		signals    []os.Signal
		wantCancel bool
	}{
		{
			name:       "single signal is left to the child",
			signals:    []os.Signal{os.Interrupt},
			wantCancel: false,
		},
		{
			name:       "same signal twice cancels",
			signals:    []os.Signal{os.Interrupt, os.Interrupt},
			wantCancel: true,
		},
		{
			name:       "different signals do not cancel",
			signals:    []os.Signal{os.Interrupt, syscall.SIGTERM},
			wantCancel: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, len(tt.signals))
			done := make(chan struct{})

			go func() {
				defer close(done)
				Watch(ctx, sigCh, cancel)
			}()

			for _, s := range tt.signals {
				sigCh <- s
			}

			if tt.wantCancel {
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
					t.Fatal("context was not cancelled")
				}

				<-done

				_, open := <-sigCh
				assert.False(t, open, "signal channel should be closed")

				return
			}

			time.Sleep(50 * time.Millisecond)
			assert.NoError(t, ctx.Err(), "context should still be live")

			close(sigCh)
			<-done
		})
	}
}

func TestWatch_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, cancel)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
}
