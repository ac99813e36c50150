// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package runner

import (
	"errors"
	"os"
	"syscall"
)

func sysProcAttr(group bool) *syscall.SysProcAttr {
	if !group {
		return nil
	}

	return &syscall.SysProcAttr{Setpgid: true}
}

func signalProcess(ps *os.Process, s os.Signal, group bool) error {
	sig, ok := s.(syscall.Signal)
	if !group || !ok {
		return ps.Signal(s)
	}

	return syscall.Kill(-ps.Pid, sig)
}

func killProcess(ps *os.Process, group bool) error {
	if !group {
		return ps.Kill()
	}

	err := syscall.Kill(-ps.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}

	return err
}
