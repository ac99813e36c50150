// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/scriptrun/internal/color"
)

// OutputOptions controls what WriteResults includes.
type OutputOptions struct {
	IncludeStdOut      bool
	IncludeStdErr      bool
	ShowSuccessDetails bool // Show output for successful steps too.
}

// DefaultOutputOptions returns stderr-only details for failed steps.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdErr: true,
	}
}

// WriteResults writes a tree of results to w.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if err := writeResult(w, r, "", options); err != nil {
			return err
		}
	}

	return nil
}

func statusMark(s Status) (string, color.Code) {
	switch s {
	case StatusSuccess:
		return "✓", color.FgGreen
	case StatusError:
		return "✗", color.FgRed
	case StatusTimeout:
		return "⏱", color.FgMagenta
	case StatusSkipped:
		return "~", color.FgYellow
	default:
		return "?", color.FgWhite
	}
}

func writeResult(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	mark, code := statusMark(r.Status)

	line := fmt.Sprintf("%s%s %s", indent, color.Colorize(mark, code), color.Colorize(r.Label, color.Bold, code))
	if r.ExitCode != 0 {
		line += fmt.Sprintf(" (exit code: %d)", r.ExitCode)
	}

	if r.Duration > 0 {
		line += color.Colorize(fmt.Sprintf(" [%s]", r.Duration.Round(time.Millisecond)), color.Faint)
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return err //nolint:wrapcheck
	}

	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		msg := strings.ReplaceAll(r.Error.Error(), "\n", "; ")
		if _, err := fmt.Fprintf(w, "%s  %s %s\n", indent, color.Colorize("➜ Error:", code), msg); err != nil {
			return err //nolint:wrapcheck
		}
	}

	details := len(r.Children) == 0 && (r.Failed() || options.ShowSuccessDetails)

	if details && options.IncludeStdOut && len(r.StdOut) > 0 {
		fmt.Fprintf(w, "%s  ➜ Output:\n%s", indent, indentLines(r.StdOut, indent+"     ")) //nolint:errcheck
	}

	if details && options.IncludeStdErr && len(r.StdErr) > 0 {
		fmt.Fprintf(w, "%s  %s\n%s", indent, //nolint:errcheck
			color.Colorize("➜ Error Output:", color.FgHiRed), indentLines(r.StdErr, indent+"     "))
	}

	for _, child := range r.Children {
		if err := writeResult(w, child, indent+"  ", options); err != nil {
			return err
		}
	}

	return nil
}

func indentLines(output []byte, indent string) string {
	var sb strings.Builder

	for line := range strings.SplitSeq(strings.TrimRight(string(output), "\n"), "\n") {
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
