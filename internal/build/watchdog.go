// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package build

import "sync"

// killSwitch orders an interrupting kill against the end of the shell's output.
// Once the output is drained the build can no longer be interrupted.
type killSwitch struct {
	mu      sync.Mutex
	drained bool
	killed  bool
}

// kill runs fn unless the output has already been drained, and reports whether it ran.
func (k *killSwitch) kill(fn func()) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.drained {
		return false
	}

	k.killed = true
	fn()

	return true
}

// drain marks the output as finished and reports whether a kill came first.
func (k *killSwitch) drain() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.drained = true

	return k.killed
}
