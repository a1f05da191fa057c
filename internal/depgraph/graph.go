// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package depgraph

import (
	"context"
	"iter"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/orderedset"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
)

// Graph owns every node of the dependency graph. It is not safe for concurrent use, and is
// treated as read-only once construction and planning have finished.
type Graph struct {
	loader   recipe.Loader
	packages *orderedset.Set[string]
	skipped  *orderedset.Set[string]
	nodes    []*Node
	byName   map[string]NodeID
}

// New creates an empty graph that loads recipes through loader.
func New(loader recipe.Loader) *Graph {
	return &Graph{
		loader:   loader,
		packages: orderedset.NewOrdered[string](),
		skipped:  orderedset.NewOrdered[string](),
		byName:   make(map[string]NodeID),
	}
}

// AddTransitively adds basename and, recursively, its mandatory, build and optional
// dependencies. Packages whose recipe is missing, unreadable or not buildable are skipped
// without error, a dependent will fail its own dependency check later.
// Only context cancellation is reported.
func (g *Graph) AddTransitively(ctx context.Context, basename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if g.packages.Contains(basename) || g.skipped.Contains(basename) {
		return nil
	}

	r, err := g.loader.Load(ctx, basename)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		ctxlog.Debug(ctx, "skipping package, recipe unavailable", "package", basename, "error", err)
		g.skipped.Insert(basename)

		return nil
	}

	if !r.Buildable {
		ctxlog.Debug(ctx, "skipping package, recipe is not buildable", "package", basename)
		g.skipped.Insert(basename)

		return nil
	}

	n := g.Add(r)

	for _, deps := range n.edgeClasses(true) {
		for dep := range deps.All() {
			if err := g.AddTransitively(ctx, dep); err != nil {
				return err
			}
		}
	}

	return nil
}

// Add inserts a node for r without following its dependencies.
// An existing node with the same basename is returned unchanged.
func (g *Graph) Add(r *recipe.Recipe) *Node {
	if id, ok := g.byName[r.Basename]; ok {
		return g.nodes[id]
	}

	n := newNode(NodeID(len(g.nodes)), r)
	g.nodes = append(g.nodes, n)
	g.byName[n.Basename] = n.id
	g.packages.Insert(n.Basename)

	return n
}

// Lookup returns the node for basename.
func (g *Graph) Lookup(basename string) (*Node, bool) {
	id, ok := g.byName[basename]
	if !ok {
		return nil, false
	}

	return g.nodes[id], true
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}

	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Packages returns the set of package basenames in the graph. Callers must not modify it.
func (g *Graph) Packages() *orderedset.Set[string] {
	return g.packages
}

// Skipped returns the basenames that were requested or depended upon but could not be added.
func (g *Graph) Skipped() []string {
	return g.skipped.Values()
}

// Nodes iterates the nodes in basename order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for name := range g.packages.All() {
			if !yield(g.nodes[g.byName[name]]) {
				return
			}
		}
	}
}

// Missing returns the mandatory and build dependencies of n that are not in available,
// in sorted order.
func (g *Graph) Missing(n *Node, available *orderedset.Set[string]) []string {
	required := n.Dependencies.Clone()
	for dep := range n.BuildDependencies.All() {
		required.Insert(dep)
	}

	var missing []string

	orderedset.MergeDiff(required, available, nil, func(dep string) {
		missing = append(missing, dep)
	}, nil)

	return missing
}

func (g *Graph) lookupUnvisited(basename string) (*Node, bool) {
	n, ok := g.Lookup(basename)
	if !ok || n.walk != Unvisited {
		return nil, false
	}

	return n, true
}

func (g *Graph) resetWalk() {
	for _, n := range g.nodes {
		n.walk = Unvisited
	}
}
