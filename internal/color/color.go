// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Code represents an ANSI SGR parameter.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi   = "\033["
	sgr   = "m"
	reset = csi + "0" + sgr
)

// Text attributes.
const (
	Reset Code = 0
	Bold  Code = 1
	Faint Code = 2
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled = capable(os.Stderr)

// Enabled reports whether colour output was detected as wanted at start-up.
//
// NO_COLOR always wins, FORCE_COLOR enables colour on any output, otherwise
// colour is used only when stderr is a terminal. Stderr is checked because
// stdout usually belongs to the child process being run.
func Enabled() bool {
	return enabled
}

// SetEnabled overrides colour detection and returns a function restoring the previous value.
func SetEnabled(on bool) (restore func()) {
	prev := enabled
	enabled = on

	return func() { enabled = prev }
}

// Colorize wraps str in the given codes when colour output is enabled.
func Colorize(str string, codes ...Code) string {
	return Wrap(enabled, str, codes...)
}

// Wrap wraps str in the given codes followed by a reset when on is true.
func Wrap(on bool, str string, codes ...Code) string {
	if !on || len(codes) == 0 {
		return str
	}

	return sequence(codes) + str + reset
}

func sequence(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}

	return csi + strings.Join(parts, ";") + sgr
}

func capable(f *os.File) bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(f.Fd()))
}
