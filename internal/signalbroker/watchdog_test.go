// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestWatch_FirstSignalInterrupts(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, abort := context.WithCancel(context.Background())
	defer abort()

	build, interrupt := context.WithCancel(root)
	defer interrupt()

	sigCh := make(chan os.Signal, 1)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(root, sigCh, interrupt, abort)
	}()

	sigCh <- os.Interrupt

	select {
	case <-build.Done():
	case <-time.After(time.Second):
		t.Fatal("build context should be cancelled after the first signal")
	}

	assert.NoError(t, root.Err(), "root context should survive the first signal")

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalAborts(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, abort := context.WithCancel(context.Background())
	defer abort()

	interrupted := make(chan struct{}, 1)
	sigCh := make(chan os.Signal, 2)

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(context.Background(), sigCh, func() { interrupted <- struct{}{} }, abort)
	}()

	sigCh <- os.Interrupt
	sigCh <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch should return after the second signal")
	}

	assert.Len(t, interrupted, 1)
	assert.ErrorIs(t, root.Err(), context.Canceled)
}

func TestWatch_ReturnsWhenContextDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal)

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, func() {}, func() {})
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch should return when its context is done")
	}
}
