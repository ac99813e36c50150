// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package interpreter

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrEmptyInterpreter is returned when an interpreter command line is blank.
var ErrEmptyInterpreter = errors.New("interpreter command is empty")

// Interpreter is a program that runs scripts, with any arguments that go before the script path.
type Interpreter struct {
	Name    string   // Display name, defaults to the base name of Command.
	Command string   // Bare command name, searched in PATH, or an absolute path.
	Args    []string // Arguments placed before the script path.
}

// Parse turns a command line such as "python3 -u" into an Interpreter.
func Parse(line string) (Interpreter, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Interpreter{}, ErrEmptyInterpreter
	}

	return Interpreter{
		Name:    filepath.Base(fields[0]),
		Command: fields[0],
		Args:    fields[1:],
	}, nil
}

// DisplayName returns Name, or the base name of Command.
func (i Interpreter) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}

	return filepath.Base(i.Command)
}

// Argv returns the arguments to pass to the interpreter executable to run script with scriptArgs.
func (i Interpreter) Argv(script string, scriptArgs ...string) []string {
	return slices.Concat(i.Args, []string{script}, scriptArgs)
}

// String implements fmt.Stringer.
func (i Interpreter) String() string {
	if len(i.Args) == 0 {
		return i.Command
	}

	return fmt.Sprintf("%s %s", i.Command, strings.Join(i.Args, " "))
}

// Source records how an interpreter was chosen.
type Source int

const (
	// SourceOverride means the caller named the interpreter.
	SourceOverride Source = iota
	// SourceExtension means the file extension matched a registry entry.
	SourceExtension
	// SourceShebang means the first line of the script named the interpreter.
	SourceShebang
	// SourceFallback means nothing matched and the registry fallback was used.
	SourceFallback
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceExtension:
		return "extension"
	case SourceShebang:
		return "shebang"
	default:
		return "fallback"
	}
}
