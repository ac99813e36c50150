// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrResultChildrenHasError is set on a batch result when one of its children failed.
	ErrResultChildrenHasError = errors.New("result has children with errors")
	// ErrSkipOnError is set on results skipped because an earlier step failed.
	ErrSkipOnError = errors.New("skipped because a previous step failed")
	// ErrSkipCancelled is set on results skipped because the run was cancelled.
	ErrSkipCancelled = errors.New("skipped because the run was cancelled")
)

// Status is the outcome class of a Result.
type Status int

const (
	// StatusUnknown is the zero value, used before a result is settled.
	StatusUnknown Status = iota
	// StatusSuccess means the process exited with a success exit code.
	StatusSuccess
	// StatusError means the process could not start, exited unsuccessfully or was stopped.
	StatusError
	// StatusTimeout means the process was killed after exceeding its timeout.
	StatusTimeout
	// StatusSkipped means the step never ran.
	StatusSkipped
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a process or batch.
type Result struct {
	Label     string
	Status    Status
	ExitCode  int
	Error     error
	StdOut    []byte // Captured stdout, at most the capture limit.
	StdErr    []byte // Captured stderr, at most the capture limit.
	Truncated bool   // Set when either capture hit its limit.
	Duration  time.Duration
	Children  Results
}

// Failed reports whether the result is an error or a timeout.
// Skipped results are not failures in their own right.
func (r *Result) Failed() bool {
	return r.Status == StatusError || r.Status == StatusTimeout
}

// Results is a slice of Result pointers.
type Results []*Result

// HasError reports whether any result, or any nested child, failed.
func (r Results) HasError() bool {
	return slices.ContainsFunc(r, func(res *Result) bool {
		return res.Failed() || res.Children.HasError()
	})
}

// First returns the first result or nil.
func (r Results) First() *Result {
	if len(r) == 0 {
		return nil
	}

	return r[0]
}

func newSkipped(label string, reason error) *Result {
	return &Result{
		Label:  label,
		Status: StatusSkipped,
		Error:  reason,
	}
}
