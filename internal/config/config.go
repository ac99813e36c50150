// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
	"github.com/matt-FFFFFF/scriptrun/internal/interpreter"
	"github.com/matt-FFFFFF/scriptrun/internal/policy"
	"github.com/spf13/afero"
)

var (
	// ErrReadConfig is returned when the config file cannot be read.
	ErrReadConfig = errors.New("failed to read config file")
	// ErrInvalidConfig is returned when the config file is syntactically valid but its values are not.
	ErrInvalidConfig = errors.New("invalid config")
)

// FileNames are the config file names searched for, in order, in each directory.
var FileNames = []string{".scriptrun.yaml", ".scriptrun.yml", ".scriptrun.hcl"}

// Config is the optional user configuration.
type Config struct {
	DefaultInterpreter  string             `yaml:"default_interpreter"  hcl:"default_interpreter,optional"`
	Interpreters        []InterpreterEntry `yaml:"interpreters"         hcl:"interpreter,block"`
	AllowedInterpreters []string           `yaml:"allowed_interpreters" hcl:"allowed_interpreters,optional"`
	AllowedCommands     []string           `yaml:"allowed_commands"     hcl:"allowed_commands,optional"`
	Timeout             string             `yaml:"timeout"              hcl:"timeout,optional"`
	MaxCaptureBytes     int64              `yaml:"max_capture_bytes"    hcl:"max_capture_bytes,optional"`
	Env                 map[string]string  `yaml:"env"                  hcl:"env,optional"`
	Ubuntu              *UbuntuConfig      `yaml:"ubuntu"               hcl:"ubuntu,block"`
	Setup               *SetupConfig       `yaml:"setup"                hcl:"setup,block"`
}

// InterpreterEntry maps a file extension to an interpreter command.
type InterpreterEntry struct {
	Extension string   `yaml:"extension" hcl:"extension,label"`
	Command   string   `yaml:"command"   hcl:"command"`
	Args      []string `yaml:"args"      hcl:"args,optional"`
}

// UbuntuConfig configures the proot-distro container.
type UbuntuConfig struct {
	Binary string `yaml:"binary" hcl:"binary,optional"`
	Distro string `yaml:"distro" hcl:"distro,optional"`
	Shell  string `yaml:"shell"  hcl:"shell,optional"`
}

// SetupConfig lists the packages and repositories installed by "scriptrun setup".
type SetupConfig struct {
	PackageManager string             `yaml:"package_manager" hcl:"package_manager,optional"`
	Packages       []string           `yaml:"packages"        hcl:"packages,optional"`
	Repositories   []RepositoryConfig `yaml:"repositories"    hcl:"repository,block"`
}

// RepositoryConfig is a go-getter source cloned to Dest.
type RepositoryConfig struct {
	URL  string `yaml:"url"  hcl:"url"`
	Dest string `yaml:"dest" hcl:"dest"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{}
}

// Load reads the config file at path. Files ending in .hcl are HCL, anything else is YAML.
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadConfig, err)
	}

	ctxlog.Debug(ctx, "loading config", "path", path)

	cfg := Default()

	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		err = DecodeHCL(path, data, cfg)
	} else {
		err = DecodeYAML(data, cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Discover returns the first config file found in dirs, searching FileNames in each.
func Discover(dirs ...string) (string, bool) {
	fs := FsFactory()

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := fs.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}

	return "", false
}

// Resolve loads the explicit config path when set, otherwise the first file
// found in the working directory and then the home directory. It returns the
// path loaded, or "" when the defaults are used.
func Resolve(ctx context.Context, explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(ctx, explicit)
		return cfg, explicit, err
	}

	var dirs []string

	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}

	path, ok := Discover(dirs...)
	if !ok {
		ctxlog.Debug(ctx, "no config file found, using defaults")
		return Default(), "", nil
	}

	cfg, err := Load(ctx, path)

	return cfg, path, err
}

// Validate checks values that decoding cannot.
func (c *Config) Validate() error {
	var err error

	if _, terr := c.TimeoutDuration(); terr != nil {
		err = multierror.Append(err, terr)
	}

	if c.MaxCaptureBytes < 0 {
		err = multierror.Append(err, fmt.Errorf("max_capture_bytes must not be negative: %d", c.MaxCaptureBytes))
	}

	for i, e := range c.Interpreters {
		if strings.TrimSpace(e.Extension) == "" {
			err = multierror.Append(err, fmt.Errorf("interpreter %d: extension is empty", i))
		}

		if strings.TrimSpace(e.Command) == "" {
			err = multierror.Append(err, fmt.Errorf("interpreter %q: command is empty", e.Extension))
		}
	}

	if c.Setup != nil {
		for i, r := range c.Setup.Repositories {
			if r.URL == "" || r.Dest == "" {
				err = multierror.Append(err, fmt.Errorf("repository %d: url and dest are required", i))
			}
		}
	}

	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}

	return d, nil
}

// Registry returns an interpreter registry with the configured entries applied over the defaults.
func (c *Config) Registry(opts ...interpreter.Option) (*interpreter.Registry, error) {
	if c.DefaultInterpreter != "" {
		fallback, err := interpreter.Parse(c.DefaultInterpreter)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		opts = append(opts, interpreter.WithFallback(fallback))
	}

	r := interpreter.NewRegistry(opts...)

	for _, e := range c.Interpreters {
		r.Register(e.Extension, interpreter.Interpreter{
			Name:    filepath.Base(e.Command),
			Command: e.Command,
			Args:    e.Args,
		})
	}

	return r, nil
}

// Policy returns the configured allow lists.
func (c *Config) Policy() policy.Policy {
	return policy.Policy{
		AllowedInterpreters: c.AllowedInterpreters,
		AllowedCommands:     c.AllowedCommands,
	}
}

// Local returns the local shell executor.
func (c *Config) Local() *backend.Local {
	return &backend.Local{
		Policy:     c.Policy(),
		MaxCapture: c.MaxCaptureBytes,
	}
}

// Proot returns the proot-distro executor.
func (c *Config) Proot() *backend.Proot {
	p := &backend.Proot{
		Policy:     c.Policy(),
		MaxCapture: c.MaxCaptureBytes,
	}

	if c.Ubuntu != nil {
		p.Binary = c.Ubuntu.Binary
		p.Distro = c.Ubuntu.Distro
		p.Shell = c.Ubuntu.Shell
	}

	return p
}
