// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger inside a context.Context.
//
// The level is shared through LevelVar and initialised from an environment
// variable named after the executable, so a binary called scriptrun reads
// SCRIPTRUN_LOG_LEVEL. Accepted values are DEBUG, INFO, WARN and ERROR; the
// default is WARN.
package ctxlog
