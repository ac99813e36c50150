// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// ErrInterpreterNotFound is returned when an interpreter executable cannot be found.
var ErrInterpreterNotFound = errors.New("interpreter not found")

// maxShebang is how much of a script is read looking for a shebang line.
const maxShebang = 256

// DefaultFallback is used when neither extension nor shebang identify an interpreter.
var DefaultFallback = Interpreter{Name: "node", Command: "node"}

// Defaults returns the built-in extension mapping.
func Defaults() map[string]Interpreter {
	node := Interpreter{Name: "node", Command: "node"}
	python := Interpreter{Name: "python", Command: "python3"}
	bash := Interpreter{Name: "bash", Command: "bash"}
	pwsh := Interpreter{Name: "pwsh", Command: "pwsh", Args: []string{"-NonInteractive", "-NoProfile", "-File"}}

	return map[string]Interpreter{
		".js":   node,
		".mjs":  node,
		".cjs":  node,
		".py":   python,
		".sh":   bash,
		".bash": bash,
		".ps1":  pwsh,
	}
}

// Registry maps file extensions to interpreters.
type Registry struct {
	byExt    map[string]Interpreter
	fallback Interpreter
	fs       afero.Fs
	path     string
}

// Option configures a Registry.
type Option func(*Registry)

// WithFs sets the file system used to read shebangs and search for executables.
func WithFs(fs afero.Fs) Option {
	return func(r *Registry) {
		r.fs = fs
	}
}

// WithFallback sets the interpreter used when nothing else matches.
func WithFallback(i Interpreter) Option {
	return func(r *Registry) {
		r.fallback = i
	}
}

// WithPath sets the search path used by Locate instead of $PATH.
func WithPath(path string) Option {
	return func(r *Registry) {
		r.path = path
	}
}

// NewRegistry returns a registry with the default mapping.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byExt:    Defaults(),
		fallback: DefaultFallback,
		fs:       afero.NewOsFs(),
		path:     os.Getenv("PATH"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register maps ext, with or without the leading dot, to i. Later registrations win.
func (r *Registry) Register(ext string, i Interpreter) {
	r.byExt[normaliseExt(ext)] = i
}

// Lookup returns the interpreter for ext.
func (r *Registry) Lookup(ext string) (Interpreter, bool) {
	i, ok := r.byExt[normaliseExt(ext)]
	return i, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	return slices.Sorted(maps.Keys(r.byExt))
}

// Fallback returns the interpreter used when nothing else matches.
func (r *Registry) Fallback() Interpreter {
	return r.fallback
}

// Resolve chooses the interpreter for script.
// A non-empty override is parsed as a command line and always wins.
func (r *Registry) Resolve(script, override string) (Interpreter, Source, error) {
	if strings.TrimSpace(override) != "" {
		i, err := Parse(override)
		return i, SourceOverride, err
	}

	if i, ok := r.Lookup(filepath.Ext(script)); ok {
		return i, SourceExtension, nil
	}

	if i, ok := r.shebang(script); ok {
		return i, SourceShebang, nil
	}

	return r.fallback, SourceFallback, nil
}

func (r *Registry) shebang(script string) (Interpreter, bool) {
	f, err := r.fs.Open(script)
	if err != nil {
		return Interpreter{}, false
	}
	defer f.Close() //nolint:errcheck

	line, err := bufio.NewReader(io.LimitReader(f, maxShebang)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Interpreter{}, false
	}

	return ParseShebang(line)
}

// ParseShebang parses a "#!" line. Both "#!/usr/bin/env prog args" and
// "#!/path/to/prog args" are understood, as is "env -S".
func ParseShebang(line string) (Interpreter, bool) {
	line = strings.TrimRight(line, "\r\n")

	rest, ok := strings.CutPrefix(line, "#!")
	if !ok {
		return Interpreter{}, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Interpreter{}, false
	}

	if filepath.Base(fields[0]) != "env" {
		return Interpreter{Name: filepath.Base(fields[0]), Command: fields[0], Args: fields[1:]}, true
	}

	fields = fields[1:]
	for len(fields) > 0 && (strings.HasPrefix(fields[0], "-") || strings.Contains(fields[0], "=")) {
		fields = fields[1:]
	}

	if len(fields) == 0 {
		return Interpreter{}, false
	}

	return Interpreter{Name: filepath.Base(fields[0]), Command: fields[0], Args: fields[1:]}, true
}

// Locate returns the path of the executable for command.
// Commands containing a path separator are checked directly, others are searched for in the path.
func (r *Registry) Locate(command string) (string, error) {
	if command == "" {
		return "", ErrEmptyInterpreter
	}

	if strings.ContainsRune(command, filepath.Separator) || strings.ContainsRune(command, '/') {
		if r.executable(command) {
			return command, nil
		}

		return "", fmt.Errorf("%w: %s", ErrInterpreterNotFound, command)
	}

	for _, dir := range filepath.SplitList(r.path) {
		if dir == "" {
			continue
		}

		for _, candidate := range candidates(filepath.Join(dir, command)) {
			if r.executable(candidate) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrInterpreterNotFound, command)
}

func (r *Registry) executable(path string) bool {
	info, err := r.fs.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}

func candidates(path string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(path) != "" {
		return []string{path}
	}

	return []string{path, path + ".exe", path + ".cmd", path + ".bat"}
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}
