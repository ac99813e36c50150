// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows the live progress of a batch run in the terminal.
// It renders a tree of steps with a spinner for running steps and the last
// line of output from each, fed by progress events from the runner.
package tui
