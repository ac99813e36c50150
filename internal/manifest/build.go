// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"io"
	"maps"

	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/interpreter"
	"github.com/matt-FFFFFF/scriptrun/internal/policy"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/matt-FFFFFF/scriptrun/internal/script"
)

// BuildOptions supplies the collaborators that steps run with.
type BuildOptions struct {
	Registry   *interpreter.Registry
	Policy     policy.Policy
	Local      backend.Executor // Runs command steps.
	Ubuntu     backend.Executor // Runs ubuntu steps.
	Env        map[string]string
	MaxCapture int64
	Stdout     io.Writer // Live output, nil to only capture.
	Stderr     io.Writer
}

// Build turns a validated manifest into a runnable batch.
func Build(m *Manifest, opts BuildOptions) runner.Runnable {
	if opts.Local == nil {
		opts.Local = &backend.Local{Policy: opts.Policy, MaxCapture: opts.MaxCapture}
	}

	if opts.Ubuntu == nil {
		opts.Ubuntu = &backend.Proot{Policy: opts.Policy, MaxCapture: opts.MaxCapture}
	}

	// Timeouts were checked by Validate.
	timeout, _ := parseTimeout(m.Timeout)

	// Batches fill in inherited variables, so the manifest's maps are copied.
	base := &runner.BaseCommand{
		Label:   m.Name,
		Env:     maps.Clone(m.Env),
		Timeout: timeout,
	}
	base.InheritEnv(opts.Env)

	steps := make([]runner.Runnable, 0, len(m.Steps))
	for _, s := range m.Steps {
		steps = append(steps, buildStep(s, opts))
	}

	if m.Mode == ModeParallel {
		return &runner.ParallelBatch{
			BaseCommand: base,
			Commands:    steps,
			Limit:       m.Parallelism,
		}
	}

	return &runner.SerialBatch{
		BaseCommand: base,
		Commands:    steps,
	}
}

func buildStep(s Step, opts BuildOptions) runner.Runnable {
	timeout, _ := parseTimeout(s.Timeout)

	base := &runner.BaseCommand{
		Label:        s.Label(),
		Cwd:          s.Cwd,
		Env:          maps.Clone(s.Env),
		Timeout:      timeout,
		AllowFailure: s.ContinueOnError,
	}

	switch s.Kind() {
	case "script":
		return &script.Command{
			BaseCommand: base,
			Path:        s.Script,
			Args:        s.Args,
			Interpreter: s.Interpreter,
			EnvFiles:    s.EnvFiles,
			Registry:    opts.Registry,
			Policy:      opts.Policy,
			Stdout:      opts.Stdout,
			Stderr:      opts.Stderr,
			MaxCapture:  opts.MaxCapture,
			// Batches may run in parallel and with timeouts, so each script gets its own group.
			NewProcessGroup: true,
		}
	case "ubuntu":
		return &backend.Step{
			BaseCommand: base,
			Executor:    opts.Ubuntu,
			Request:     backend.Request{Command: s.Ubuntu, Stdout: opts.Stdout, Stderr: opts.Stderr},
		}
	default:
		return &backend.Step{
			BaseCommand: base,
			Executor:    opts.Local,
			Request:     backend.Request{Command: s.Command, Stdout: opts.Stdout, Stderr: opts.Stderr},
		}
	}
}
