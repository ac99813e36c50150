// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package interpreter decides which program runs a script.
//
// A Registry maps file extensions to interpreters. Resolve tries, in order,
// an explicit override, the script's extension, the script's shebang line and
// finally the registry fallback, which is node by default.
package interpreter
