// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

// eventBuffer is how many events may queue before output events are dropped.
const eventBuffer = 256

// Runner runs a Runnable while a bubbletea program shows its progress.
type Runner struct {
	model   *Model
	program *tea.Program
}

// Option configures a Runner.
type Option func(*options)

type options struct {
	autoQuit bool
	program  []tea.ProgramOption
}

// WithAutoQuit closes the UI as soon as the run finishes instead of waiting for q.
func WithAutoQuit() Option {
	return func(o *options) {
		o.autoQuit = true
	}
}

// WithProgramOptions passes options through to tea.NewProgram.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *options) {
		o.program = append(o.program, opts...)
	}
}

// NewRunner creates a runner whose UI is titled title.
func NewRunner(title string, opts ...Option) *Runner {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	model := NewModel(title)
	model.autoQuit = o.autoQuit

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, o.program...),
	}
}

// Run executes runnable with the UI attached and returns its results.
// Quitting the UI before the run finishes cancels the run.
func (r *Runner) Run(ctx context.Context, runnable runner.Runnable) (runner.Results, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Steps report into a buffer so a busy UI never stalls their output pumps.
	events := progress.NewChannelReporter(eventBuffer)
	runnable.SetReporter(events)

	forwarded := make(chan struct{})

	go func() {
		defer close(forwarded)

		for e := range events.Events() {
			r.program.Send(EventMsg{Event: e})
		}
	}()

	resultCh := make(chan runner.Results, 1)

	go func() {
		res := runnable.Run(runCtx)

		events.Close()
		<-forwarded

		resultCh <- res
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	select {
	case results := <-resultCh:
		r.program.Send(DoneMsg{Results: results})
		return results, <-tuiDone

	case err := <-tuiDone:
		cancel()
		return <-resultCh, err
	}
}
