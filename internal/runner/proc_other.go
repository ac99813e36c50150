// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package runner

import (
	"os"
	"syscall"
)

func sysProcAttr(bool) *syscall.SysProcAttr {
	return nil
}

func signalProcess(ps *os.Process, s os.Signal, _ bool) error {
	return ps.Signal(s)
}

func killProcess(ps *os.Process, _ bool) error {
	return ps.Kill()
}
