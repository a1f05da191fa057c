// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns termination signals into the cancellation of a build.
// By default it listens for SIGINT, SIGTERM, SIGQUIT and SIGHUP.
//
// The first signal cancels the build context, so the running shell is killed and its working
// directory removed. The second signal calls an abort function, which normally exits.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
)

// termSignals end a build. A hangup is included, builds are long and often run in a terminal
// that goes away.
var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	syscall.SIGHUP,
}

// New subscribes a channel to sigs, or to the termination signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "subscribing to signals", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop ends signal delivery to ch.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}

// WithInterrupt returns a child of ctx for running builds. The first signal cancels it and the
// second calls abort. The returned stop function ends the subscription, waits for the watcher
// and cancels the child.
func WithInterrupt(ctx context.Context, abort func(), sigs ...os.Signal) (context.Context, func()) {
	buildCtx, interrupt := context.WithCancel(ctx)
	watchCtx, stopWatching := context.WithCancel(ctx)

	ch := New(ctx, sigs...)
	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(watchCtx, ch, interrupt, abort)
	}()

	return buildCtx, func() {
		Stop(ch)
		stopWatching()
		<-done
		interrupt()
	}
}
