// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"slices"
	"time"
)

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a step has begun execution.
	EventStarted EventType = iota
	// EventOutput carries the latest complete line written by a step.
	EventOutput
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the step failed or timed out.
	EventFailed
	// EventSkipped indicates the step never ran.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle update for the step identified by Path.
type Event struct {
	Path     []string // Labels from the outermost batch down to the step.
	Type     EventType
	Line     string // EventOutput only.
	Stderr   bool   // EventOutput only.
	ExitCode int
	Err      error
	Time     time.Time
}

// Name returns the last element of the path, or "" for an empty path.
func (e Event) Name() string {
	if len(e.Path) == 0 {
		return ""
	}

	return e.Path[len(e.Path)-1]
}

// Reporter receives events. Implementations must not block the caller for long.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// Nop discards every event.
var Nop Reporter = ReporterFunc(func(Event) {})

// Under returns a reporter that prefixes every event path with parent.
// A nil reporter yields nil so callers can keep using a nil check.
func Under(r Reporter, parent string) Reporter {
	if r == nil {
		return nil
	}

	return ReporterFunc(func(e Event) {
		e.Path = slices.Concat([]string{parent}, e.Path)
		r.Report(e)
	})
}

// Emit fills in the timestamp and sends an event to r if r is not nil.
func Emit(r Reporter, e Event) {
	if r == nil {
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	r.Report(e)
}
