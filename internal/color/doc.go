// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decorates console text with ANSI escape codes.
// Detection honours the NO_COLOR and FORCE_COLOR environment variables.
package color
