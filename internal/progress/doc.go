// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress defines the events a running step emits and the reporters
// that carry them to a listener such as the terminal UI.
package progress
