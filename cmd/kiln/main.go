// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the kiln command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/kiln"
	"github.com/matt-FFFFFF/kiln/cmd/kiln/build"
	"github.com/matt-FFFFFF/kiln/cmd/kiln/cmdstate"
	"github.com/matt-FFFFFF/kiln/cmd/kiln/order"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		build.BuildCmd,
		order.OrderCmd,
	},
	Flags: []cli.Flag{
		cmdstate.LogLevel(),
	},
	Before:    cmdstate.Before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "kiln",
	Description: `Kiln builds packages from source recipes. A recipe is a shell script whose leading
export block names the package version and its dependencies. Kiln works out the order
in which packages must be built, builds packages that depend on each other twice, and
runs every recipe in its own shell with its output logged.`,
	Usage:     "kiln build mypackage",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel()

	// The first signal stops the running build, the second exits immediately.
	buildCtx, stop := signalbroker.WithInterrupt(ctx, func() {
		cancel()
		os.Exit(cmdstate.ExitInterrupted)
	})
	defer stop()

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", kiln.Version, kiln.Commit)

	err := rootCmd.Run(buildCtx, os.Args) // Err is handled by cli framework

	if buildCtx.Err() != nil {
		ctxlog.Error(ctx, "command terminated due to cancellation", "error", buildCtx.Err())
		os.Exit(cmdstate.ExitInterrupted)
	}

	if err != nil {
		ctxlog.Error(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}
}
