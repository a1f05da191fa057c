// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package order contains the command that prints the build order without building anything.
package order

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/kiln/cmd/kiln/cmdstate"
	"github.com/matt-FFFFFF/kiln/internal/config"
	"github.com/matt-FFFFFF/kiln/internal/depgraph"
	"github.com/matt-FFFFFF/kiln/internal/orderedset"
	"github.com/urfave/cli/v3"
)

const (
	cyclesFlag  = "cycles"
	skippedFlag = "skipped"
	writeFlag   = "write"
)

// OrderCmd prints the build list for the named packages.
var OrderCmd = &cli.Command{
	Name: "order",
	Description: `Print the order in which the named packages and their dependencies would be built.
One package is printed per line. Packages that take part in a dependency cycle appear twice.`,
	Usage:     "print the build order",
	ArgsUsage: "PACKAGE...",
	Flags: append(cmdstate.Flags(),
		&cli.BoolFlag{
			Name:        cyclesFlag,
			Usage:       "Also print the dependency cycles",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        skippedFlag,
			Usage:       "Also print packages without a buildable recipe",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.StringFlag{
			Name:      writeFlag,
			Aliases:   []string{"w"},
			Usage:     "Write the resolved package set to this file, one package per line",
			TakesFile: true,
			OnlyOnce:  true,
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

	if path := cmd.String(writeFlag); path != "" {
		if err := orderedset.WriteLines(config.FsFactory(), path, plan.Graph.Packages()); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if err := writePlan(cmd.Root().Writer, plan, cmd.Bool(cyclesFlag), cmd.Bool(skippedFlag)); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func writePlan(w io.Writer, plan *depgraph.Plan, cycles, skipped bool) error {
	var sb strings.Builder

	for _, name := range plan.Names() {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}

	if cycles {
		for _, c := range plan.Graph.Cycles() {
			fmt.Fprintf(&sb, "cycle %s: %s\n", c.Anchor, strings.Join(c.Members, " -> "))
		}
	}

	if skipped {
		for _, name := range plan.Graph.Skipped() {
			fmt.Fprintf(&sb, "skipped %s\n", name)
		}
	}

	fmt.Fprintf(&sb, "%d packages, %d entries, %d cycles\n", plan.Graph.Len(), len(plan.List), plan.Cycles)

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}
