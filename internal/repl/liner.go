// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package repl

import (
	"os"

	"github.com/peterh/liner"
)

var _ LineReader = (*Liner)(nil)

// Liner is a terminal LineReader with history persisted to a file.
type Liner struct {
	*liner.State
	history string
}

// NewLiner takes over the terminal. Ctrl+C aborts the prompt.
// History is loaded from historyPath when it is set and exists.
func NewLiner(historyPath string) *Liner {
	s := liner.NewLiner()
	s.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = s.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &Liner{State: s, history: historyPath}
}

// Close saves the history and restores the terminal.
func (l *Liner) Close() error {
	if l.history != "" {
		if f, err := os.Create(l.history); err == nil {
			_, _ = l.WriteHistory(f)
			_ = f.Close()
		}
	}

	return l.State.Close() //nolint:wrapcheck
}
