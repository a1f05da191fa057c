// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package depgraph

import (
	"context"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
)

// BuildList returns the packages in build order. It relies on the annotations of the last
// DetectCycles call.
//
// The primary order is a depth-first post-order over mandatory and build dependencies, in
// basename order. Optional dependencies are followed only from nodes outside any cycle.
// Whenever the last member of a cycle takes its place in the primary order, the whole cycle is
// appended again starting after its anchor, so a cycle of k packages adds k entries.
func (g *Graph) BuildList() []*Node {
	g.resetWalk()

	order := make([]*Node, 0, len(g.nodes))

	var visit func(n *Node)
	visit = func(n *Node) {
		n.walk = Visited

		for _, deps := range n.edgeClasses(!n.InCycle()) {
			for dep := range deps.All() {
				if child, ok := g.lookupUnvisited(dep); ok {
					visit(child)
				}
			}
		}

		order = append(order, n)
	}

	for n := range g.Nodes() {
		if n.walk == Unvisited {
			visit(n)
		}
	}

	g.resetWalk()

	remaining := make(map[NodeID]int)
	list := make([]*Node, 0, len(order))

	for _, n := range order {
		list = append(list, n)

		if !n.InCycle() {
			continue
		}

		anchor := g.nodes[n.cycleAnchor]

		left, seen := remaining[anchor.id]
		if !seen {
			left = anchor.cycleRemaining
		}

		if left == 0 {
			continue
		}

		left--
		remaining[anchor.id] = left

		if left == 0 {
			g.walkCycle(anchor, func(m *Node) {
				list = append(list, m)
			})
		}
	}

	return list
}

// Plan is the resolved build order for a set of requested packages.
type Plan struct {
	Graph  *Graph
	List   []*Node
	Cycles int
}

// Names returns the basenames of the build list.
func (p *Plan) Names() []string {
	out := make([]string, len(p.List))
	for i, n := range p.List {
		out[i] = n.Basename
	}

	return out
}

// Resolve builds the dependency graph for names, detects cycles and plans the build order.
func Resolve(ctx context.Context, loader recipe.Loader, names ...string) (*Plan, error) {
	g := New(loader)

	for _, name := range names {
		if err := g.AddTransitively(ctx, name); err != nil {
			return nil, err
		}
	}

	cycles := g.DetectCycles()
	list := g.BuildList()

	ctxlog.Debug(ctx, "build plan resolved",
		"requested", names,
		"packages", g.Len(),
		"entries", len(list),
		"cycles", cycles,
		"skipped", g.Skipped(),
	)

	return &Plan{
		Graph:  g,
		List:   list,
		Cycles: cycles,
	}, nil
}
