// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"slices"
	"strings"
	"time"
)

// StepStatus is the display state of a step.
type StepStatus int

// Step states.
const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String implements fmt.Stringer.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StepNode is a step in the displayed tree.
type StepNode struct {
	Path       []string
	Name       string
	Status     StepStatus
	StartTime  time.Time
	EndTime    time.Time
	LastOutput string
	ErrorMsg   string
	Children   []*StepNode
}

// NewStepNode creates a pending node.
func NewStepNode(path []string, name string) *StepNode {
	return &StepNode{
		Path:   slices.Clone(path),
		Name:   name,
		Status: StatusPending,
	}
}

// SetStatus records the status and the start or end time it implies.
func (n *StepNode) SetStatus(s StepStatus, at time.Time) {
	n.Status = s

	switch s {
	case StatusRunning:
		if n.StartTime.IsZero() {
			n.StartTime = at
		}
	case StatusSuccess, StatusFailed:
		if n.EndTime.IsZero() {
			n.EndTime = at
		}
	}
}

// SetOutput keeps the last non-blank line of output.
func (n *StepNode) SetOutput(output string) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		n.LastOutput = last
	}
}

// Elapsed returns how long the step ran, or has been running, as of now.
func (n *StepNode) Elapsed(now time.Time) time.Duration {
	if n.StartTime.IsZero() {
		return 0
	}

	if !n.EndTime.IsZero() {
		return n.EndTime.Sub(n.StartTime)
	}

	return now.Sub(n.StartTime)
}
