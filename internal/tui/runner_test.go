// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunnable struct {
	runner.BaseCommand
	status runner.Status
}

func (f *fakeRunnable) Run(_ context.Context) runner.Results {
	progress.Emit(f.Reporter(), progress.Event{Path: []string{f.GetLabel()}, Type: progress.EventStarted})
	progress.Emit(f.Reporter(), progress.Event{Path: []string{f.GetLabel()}, Type: progress.EventOutput, Line: "working"})
	progress.Emit(f.Reporter(), progress.Event{Path: []string{f.GetLabel()}, Type: progress.EventCompleted})

	return runner.Results{{Label: f.GetLabel(), Status: f.status}}
}

func headless() Option {
	return WithProgramOptions(tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
}

func TestRunner_Run(t *testing.T) {
	r := NewRunner("test", WithAutoQuit(), headless())
	step := &fakeRunnable{BaseCommand: runner.BaseCommand{Label: "step"}, status: runner.StatusSuccess}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	results, err := r.Run(ctx, step)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, runner.StatusSuccess, results[0].Status)

	assert.True(t, r.model.Completed())

	n, ok := r.model.Node("step")
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, n.Status)
}
