// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package build contains the command that builds packages and their dependencies.
package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/kiln/cmd/kiln/cmdstate"
	pkgbuild "github.com/matt-FFFFFF/kiln/internal/build"
	"github.com/matt-FFFFFF/kiln/internal/config"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/depgraph"
	"github.com/matt-FFFFFF/kiln/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	forceFlag                = "force"
	dryRunFlag               = "dry-run"
	outputSuccessDetailsFlag = "output-success-details"
	cliExitStr               = ""
)

// ErrUnknownPackage is returned when a named package has no buildable recipe.
var ErrUnknownPackage = errors.New("no buildable recipe for package")

// BuildCmd builds the named packages after everything they depend on.
var BuildCmd = &cli.Command{
	Name: "build",
	Description: `Build one or more packages from source.
Every package named on the command line is built after all of its dependencies.
Packages that depend on each other are built twice, so that each of them is built
against a complete copy of the others.

Packages that are already installed at the version of their recipe are skipped unless
--force is given.`,
	Usage:     "build packages and their dependencies",
	ArgsUsage: "PACKAGE...",
	Flags: append(cmdstate.Flags(),
		&cli.BoolFlag{
			Name:        forceFlag,
			Aliases:     []string{"f"},
			Usage:       "Build packages that are already installed",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        dryRunFlag,
			Aliases:     []string{"n"},
			Usage:       "Show what would be built without running any recipe",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include details of successful builds in the summary",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	),
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	names, err := cmdstate.PackageNames(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := cmdstate.LoadConfig(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	loader, err := cmdstate.Loader(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	plan, err := depgraph.Resolve(ctx, loader, names...)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, name := range names {
		if _, ok := plan.Graph.Lookup(name); !ok {
			return cli.Exit(fmt.Sprintf("%s: %s", ErrUnknownPackage.Error(), name), 1)
		}
	}

	store, err := cmdstate.InstalledStore(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	batch := newBatch(cfg, cmd)
	batch.Installed = store

	results := batch.Run(ctx, plan)

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := results.WriteWithOptions(cmd.Root().Writer, opts); err != nil {
		ctxlog.Error(ctx, "failed to write results", "error", err)
	}

	switch {
	case results.Interrupted():
		return cli.Exit(cliExitStr, cmdstate.ExitInterrupted)
	case results.HasError():
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func newBatch(cfg *config.Config, cmd *cli.Command) *runbatch.Batch {
	return &runbatch.Batch{
		Builder: &pkgbuild.Orchestrator{
			Shell:           cfg.Shell,
			Env:             cfg.Env,
			Terminators:     cfg.Terminators,
			Console:         cmd.Root().Writer,
			Fs:              config.FsFactory(),
			CleanupRetries:  cfg.Cleanup.Retries,
			CleanupInterval: cfg.CleanupInterval(),
		},
		BuildRoot: cfg.BuildRoot,
		LogDir:    cfg.LogDir,
		Force:     cmd.Bool(forceFlag),
		KeepGoing: cfg.KeepGoing,
		DryRun:    cmd.Bool(dryRunFlag),
		Out:       cmd.Root().Writer,
	}
}
