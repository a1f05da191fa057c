// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package depgraph

import (
	"github.com/matt-FFFFFF/kiln/internal/orderedset"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
)

// NodeID indexes a node in its graph's arena.
type NodeID int

// NoNode marks an unset node reference.
const NoNode NodeID = -1

// WalkState is the per-pass traversal mark of a node. Every pass starts and ends with all
// nodes Unvisited.
type WalkState int

const (
	// Unvisited nodes have not been reached in the current pass.
	Unvisited WalkState = iota
	// OnStack nodes are on the current depth-first path.
	OnStack
	// Visited nodes are finished.
	Visited
)

// Node is a buildable package and its dependency edges.
type Node struct {
	Basename             string
	Version              string
	RecipePath           string
	Dependencies         *orderedset.Set[string]
	BuildDependencies    *orderedset.Set[string]
	OptionalDependencies *orderedset.Set[string]
	Buildable            bool

	id             NodeID
	walk           WalkState
	cycleAnchor    NodeID
	cycleNext      NodeID
	cycleRemaining int
}

func newNode(id NodeID, r *recipe.Recipe) *Node {
	return &Node{
		Basename:             r.Basename,
		Version:              r.Version,
		RecipePath:           r.Path,
		Dependencies:         orderedset.NewOrdered(r.Dependencies...),
		BuildDependencies:    orderedset.NewOrdered(r.BuildDependencies...),
		OptionalDependencies: orderedset.NewOrdered(r.OptionalDependencies...),
		Buildable:            r.Buildable,
		id:                   id,
		cycleAnchor:          NoNode,
		cycleNext:            NoNode,
	}
}

// ID returns the arena index of the node.
func (n *Node) ID() NodeID {
	return n.id
}

// InCycle reports whether cycle detection placed the node in a dependency cycle.
func (n *Node) InCycle() bool {
	return n.cycleAnchor != NoNode
}

// String returns the basename.
func (n *Node) String() string {
	return n.Basename
}

func (n *Node) edgeClasses(withOptional bool) []*orderedset.Set[string] {
	if withOptional {
		return []*orderedset.Set[string]{n.Dependencies, n.BuildDependencies, n.OptionalDependencies}
	}

	return []*orderedset.Set[string]{n.Dependencies, n.BuildDependencies}
}

func (n *Node) resetCycle() {
	n.cycleAnchor = NoNode
	n.cycleNext = NoNode
	n.cycleRemaining = 0
}
