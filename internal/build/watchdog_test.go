// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package build

import (
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillSwitch_KillBeforeDrain(t *testing.T) {
	var k killSwitch

	calls := 0
	assert.True(t, k.kill(func() { calls++ }))
	assert.True(t, k.drain())
	assert.Equal(t, 1, calls)
}

func TestKillSwitch_DrainedOutputIsNotKilled(t *testing.T) {
	var k killSwitch

	assert.False(t, k.drain())

	calls := 0
	assert.False(t, k.kill(func() { calls++ }))
	assert.Equal(t, 0, calls)
}

func TestKillSwitch_Concurrent(t *testing.T) {
	for range 100 {
		var (
			k      killSwitch
			wg     sync.WaitGroup
			ran    bool
			killed bool
		)

		wg.Add(1)

		go func() {
			defer wg.Done()
			ran = k.kill(func() {})
		}()

		killed = k.drain()
		wg.Wait()

		assert.Equal(t, ran, killed)
	}
}

func TestExitedOnItsOwn(t *testing.T) {
	skipOnWindows(t)

	exited := exec.Command("/bin/sh", "-c", "exit 3")
	err := exited.Run()
	require.Error(t, err)
	assert.True(t, exitedOnItsOwn(exited.ProcessState))
	assert.Equal(t, 3, exitCode(exited.ProcessState))

	killed := exec.Command("/bin/sh", "-c", "kill -9 $$")
	err = killed.Run()
	require.Error(t, err)
	assert.False(t, exitedOnItsOwn(killed.ProcessState))
	assert.Equal(t, 137, exitCode(killed.ProcessState))

	assert.False(t, exitedOnItsOwn(nil))
}
