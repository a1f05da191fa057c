// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package build

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts the shell in its own process group so the whole build can be killed.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killGroup kills the process group led by ps.
func killGroup(ps *os.Process) error {
	err := unix.Kill(-ps.Pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}

	return ps.Kill() //nolint:wrapcheck
}

// exitCode maps a shell killed by a signal to 128 plus the signal number.
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}

	return state.ExitCode()
}

// exitedOnItsOwn reports whether the shell exited rather than being killed by a signal.
func exitedOnItsOwn(state *os.ProcessState) bool {
	return state != nil && state.Exited()
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE)
}
