// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package build

import (
	"errors"
	"os"
	"syscall"
)

// errNoData is ERROR_NO_DATA, reported when writing to a pipe whose reader has gone.
const errNoData = syscall.Errno(232)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killGroup(ps *os.Process) error {
	return ps.Kill() //nolint:wrapcheck
}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}

// exitedOnItsOwn always reports false, a killed process is indistinguishable from one that
// exited with status 1.
func exitedOnItsOwn(*os.ProcessState) bool {
	return false
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.ERROR_BROKEN_PIPE) || errors.Is(err, errNoData)
}
