// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runner starts operating system processes and groups them into
// serial or parallel batches.
//
// Failures never surface as Go errors from Run: every outcome, including a
// process that could not be started, is described by a Result carrying a
// Status, an exit code and the error that caused it.
package runner
