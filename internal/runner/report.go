// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/scriptrun/internal/color"
)

// Report writes a one-line description of a failed result to errW.
// Successful and skipped results write nothing; their output has already
// been streamed to the console by the process itself.
func Report(errW io.Writer, res *Result) {
	if res == nil || !res.Failed() {
		return
	}

	mark, code := statusMark(res.Status)
	msg := "failed"
	if res.Error != nil {
		msg = strings.ReplaceAll(res.Error.Error(), "\n", ": ")
	}

	fmt.Fprintf(errW, "%s %s: %s\n", color.Colorize(mark, code), res.Label, msg) //nolint:errcheck
}
