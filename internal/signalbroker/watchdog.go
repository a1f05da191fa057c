// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
)

// Watch consumes sigCh until it is closed or ctx is done.
// The first signal calls interrupt, the second calls abort and returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, interrupt, abort context.CancelFunc) {
	received := 0

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			received++

			if received > 1 {
				ctxlog.Warn(ctx, "received second signal, aborting", "signal", sig.String())
				abort()

				return
			}

			ctxlog.Warn(ctx, "received signal, interrupting current build", "signal", sig.String())
			interrupt()
		}
	}
}
