// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"maps"

	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

var _ runner.Runnable = (*Step)(nil)

// Step runs a request through an executor as part of a batch.
// Cwd, Env and Timeout on the BaseCommand override those on the request.
type Step struct {
	*runner.BaseCommand
	Executor Executor
	Request  Request
}

// NewStep returns a Step labelled with the request label or command.
func NewStep(exec Executor, req Request) *Step {
	return &Step{
		BaseCommand: &runner.BaseCommand{Label: req.label()},
		Executor:    exec,
		Request:     req,
	}
}

// Run implements runner.Runnable.
func (s *Step) Run(ctx context.Context) runner.Results {
	req := s.Request
	req.Label = s.GetLabel()
	req.Reporter = s.Reporter()

	if s.Cwd != "" {
		req.Cwd = s.Cwd
	}

	if s.Timeout > 0 {
		req.Timeout = s.Timeout
	}

	if len(s.Env) > 0 {
		env := maps.Clone(req.Env)
		if env == nil {
			env = make(map[string]string, len(s.Env))
		}

		maps.Copy(env, s.Env)
		req.Env = env
	}

	return runner.Results{s.Executor.Execute(ctx, req)}
}
