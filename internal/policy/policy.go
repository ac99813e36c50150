// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package policy restricts which interpreters and shell commands may run.
package policy

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// ErrNotAllowed is returned when an interpreter or command is not on its allow list.
var ErrNotAllowed = errors.New("not allowed by policy")

// Policy holds the allow lists. An empty list allows everything.
type Policy struct {
	// AllowedInterpreters are interpreter base names, such as "node" or "python3".
	AllowedInterpreters []string
	// AllowedCommands are command prefixes. A prefix matches a whole word:
	// "git" allows "git status" but not "gitk".
	AllowedCommands []string
}

// CheckInterpreter returns ErrNotAllowed unless the base name of command is allowed.
func (p Policy) CheckInterpreter(command string) error {
	if len(p.AllowedInterpreters) == 0 {
		return nil
	}

	if slices.Contains(p.AllowedInterpreters, filepath.Base(command)) {
		return nil
	}

	return fmt.Errorf("%w: interpreter %q", ErrNotAllowed, command)
}

// CheckCommand returns ErrNotAllowed unless command starts with an allowed prefix.
func (p Policy) CheckCommand(command string) error {
	if len(p.AllowedCommands) == 0 {
		return nil
	}

	command = strings.TrimSpace(command)

	for _, prefix := range p.AllowedCommands {
		if prefix = strings.TrimSpace(prefix); prefix == "" {
			continue
		}

		rest, ok := strings.CutPrefix(command, prefix)
		if ok && (rest == "" || unicode.IsSpace(rune(rest[0]))) {
			return nil
		}
	}

	return fmt.Errorf("%w: command %q", ErrNotAllowed, command)
}
