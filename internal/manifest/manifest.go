// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package manifest reads batch manifests: named lists of scripts and shell
// commands run serially or in parallel by "scriptrun batch".
package manifest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/fetch"
	"github.com/spf13/afero"
)

var (
	// ErrInvalidManifest is returned when a manifest cannot be decoded or fails validation.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrInvalidStep is returned, wrapped in ErrInvalidManifest, for each invalid step.
	ErrInvalidStep = errors.New("invalid step")
	// ErrReadManifest is returned when the manifest cannot be read or fetched.
	ErrReadManifest = errors.New("failed to read manifest")
)

// Execution modes.
const (
	ModeSerial   = "serial"
	ModeParallel = "parallel"
)

// Manifest is a batch of steps.
type Manifest struct {
	Name        string            `yaml:"name"        hcl:"name,optional"`
	Description string            `yaml:"description" hcl:"description,optional"`
	Mode        string            `yaml:"mode"        hcl:"mode,optional"`
	Parallelism int               `yaml:"parallelism" hcl:"parallelism,optional"`
	Timeout     string            `yaml:"timeout"     hcl:"timeout,optional"`
	Env         map[string]string `yaml:"env"         hcl:"env,optional"`
	Steps       []Step            `yaml:"steps"       hcl:"step,block"`
}

// Step is one entry of a manifest. Exactly one of Script, Command and Ubuntu is set.
type Step struct {
	Name            string            `yaml:"name"              hcl:"name,label"`
	Script          string            `yaml:"script"            hcl:"script,optional"`
	Command         string            `yaml:"command"           hcl:"command,optional"`
	Ubuntu          string            `yaml:"ubuntu"            hcl:"ubuntu,optional"`
	Args            []string          `yaml:"args"              hcl:"args,optional"`
	Interpreter     string            `yaml:"interpreter"       hcl:"interpreter,optional"`
	Cwd             string            `yaml:"cwd"               hcl:"cwd,optional"`
	Env             map[string]string `yaml:"env"               hcl:"env,optional"`
	EnvFiles        []string          `yaml:"env_files"         hcl:"env_files,optional"`
	Timeout         string            `yaml:"timeout"           hcl:"timeout,optional"`
	ContinueOnError bool              `yaml:"continue_on_error" hcl:"continue_on_error,optional"`
}

// Kind returns which of script, command or ubuntu the step runs.
func (s Step) Kind() string {
	switch {
	case strings.TrimSpace(s.Script) != "":
		return "script"
	case strings.TrimSpace(s.Command) != "":
		return "command"
	case strings.TrimSpace(s.Ubuntu) != "":
		return "ubuntu"
	default:
		return ""
	}
}

// Label returns the step name, or what it runs when it has none.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}

	return s.Script + s.Command + s.Ubuntu
}

// Load reads the manifest at src, which is a local path or a go-getter source.
func Load(ctx context.Context, src string) (*Manifest, error) {
	var (
		data []byte
		err  error
	)

	if fetch.IsRemote(src) {
		data, err = fetch.Bytes(ctx, src)
	} else {
		data, err = afero.ReadFile(config.FsFactory(), src)
	}

	if err != nil {
		return nil, errors.Join(ErrReadManifest, err)
	}

	ctxlog.Debug(ctx, "manifest read", "src", src, "bytes", len(data))

	return Parse(src, data)
}

// Parse decodes and validates a manifest. Names ending in .hcl are HCL, anything else is YAML.
func Parse(name string, data []byte) (*Manifest, error) {
	m := new(Manifest)

	var err error

	if strings.EqualFold(filepath.Ext(stripQuery(name)), ".hcl") {
		err = config.DecodeHCL(name, data, m)
	} else {
		err = config.DecodeYAML(data, m)
	}

	if err != nil {
		return nil, errors.Join(ErrInvalidManifest, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks the manifest and every step, reporting all problems at once.
func (m *Manifest) Validate() error {
	var err error

	switch m.Mode {
	case "", ModeSerial, ModeParallel:
	default:
		err = multierror.Append(err, fmt.Errorf("mode must be %q or %q, got %q", ModeSerial, ModeParallel, m.Mode))
	}

	if m.Parallelism < 0 {
		err = multierror.Append(err, fmt.Errorf("parallelism must not be negative: %d", m.Parallelism))
	}

	if _, terr := parseTimeout(m.Timeout); terr != nil {
		err = multierror.Append(err, terr)
	}

	if len(m.Steps) == 0 {
		err = multierror.Append(err, errors.New("no steps specified"))
	}

	for i, s := range m.Steps {
		if serr := s.validate(); serr != nil {
			err = multierror.Append(err, fmt.Errorf("%w %d (%s): %w", ErrInvalidStep, i, s.Label(), serr))
		}
	}

	if err != nil {
		return errors.Join(ErrInvalidManifest, err)
	}

	return nil
}

func (s Step) validate() error {
	set := 0

	for _, v := range []string{s.Script, s.Command, s.Ubuntu} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}

	if set != 1 {
		return errors.New("exactly one of script, command or ubuntu is required")
	}

	if s.Kind() != "script" && (len(s.Args) > 0 || s.Interpreter != "" || len(s.EnvFiles) > 0) {
		return errors.New("args, interpreter and env_files only apply to script steps")
	}

	if _, err := parseTimeout(s.Timeout); err != nil {
		return err
	}

	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative: %s", s)
	}

	return d, nil
}

func stripQuery(src string) string {
	before, _, _ := strings.Cut(src, "?")
	return before
}
