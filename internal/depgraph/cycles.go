// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package depgraph

// Cycle is a group of packages that depend on each other, listed in replay order.
// The anchor is always the last member.
type Cycle struct {
	Anchor  string
	Members []string
}

type cycleDetector struct {
	g *Graph
	// spliced holds, per anchor that was reached again while still on the stack,
	// the head of its previous chain until the new cycle closes.
	spliced map[NodeID]NodeID
}

// DetectCycles annotates every node that takes part in a dependency cycle and returns the
// number of distinct cyclic groups found. Earlier annotations are discarded.
//
// Nodes are walked depth first in basename order. A dependency edge that reaches a node on the
// current path makes that node the anchor of a cycle. While the discovery unwinds, each node on
// the path records the anchor and links to its caller, so following the successor links from
// any member leads around the cycle and back to the anchor. The anchor counts the members.
// Build dependencies are only explored when no mandatory dependency closed over the path, and
// optional dependencies only when neither did.
func (g *Graph) DetectCycles() int {
	g.resetWalk()

	for _, n := range g.nodes {
		n.resetCycle()
	}

	d := &cycleDetector{
		g:       g,
		spliced: make(map[NodeID]NodeID),
	}

	for n := range g.Nodes() {
		if n.walk == Unvisited {
			d.visit(n, NoNode)
		}
	}

	g.resetWalk()

	groups := 0

	for _, n := range g.nodes {
		if n.cycleAnchor == n.id {
			groups++
		}
	}

	return groups
}

// visit returns the anchor of an open cycle the node belongs to, or NoNode.
func (d *cycleDetector) visit(n *Node, caller NodeID) NodeID {
	switch n.walk {
	case Visited:
		return NoNode
	case OnStack:
		d.anchor(n, caller)
		return n.id
	}

	n.walk = OnStack
	open := NoNode

	for _, deps := range n.edgeClasses(true) {
		for dep := range deps.All() {
			child, ok := d.g.Lookup(dep)
			if !ok {
				continue
			}

			a := d.visit(child, n.id)
			if a == NoNode {
				continue
			}

			if a == n.id {
				d.close(n, child)
				continue
			}

			open = a

			break
		}

		if open != NoNode {
			break
		}
	}

	if open != NoNode {
		d.join(n, open, caller)
	}

	n.walk = Visited

	return open
}

// anchor starts a cycle at n, which was reached again from caller while on the stack.
func (d *cycleDetector) anchor(n *Node, caller NodeID) {
	if n.cycleAnchor == n.id {
		// n already anchors a closed cycle, the new members are spliced into its chain.
		d.spliced[n.id] = n.cycleNext
		n.cycleNext = caller

		return
	}

	n.cycleAnchor = n.id
	n.cycleRemaining = 1
	n.cycleNext = caller
}

// close finishes the cycle anchored at n. When the cycle was spliced into an earlier one, the
// member that links back to n is relinked to the head of n's previous chain. That member is
// child, or the tail of a cycle child absorbed.
func (d *cycleDetector) close(n, child *Node) {
	head, ok := d.spliced[n.id]
	if !ok {
		return
	}

	delete(d.spliced, n.id)

	if child.id == n.id {
		// A self edge adds no members, restore the previous chain.
		n.cycleNext = head
		return
	}

	if last := d.lastBefore(n); last != nil {
		last.cycleNext = head
	}
}

// lastBefore follows the chain from n's successor to the member that links back to n.
func (d *cycleDetector) lastBefore(n *Node) *Node {
	cur := n.cycleNext

	for range len(d.g.nodes) {
		if cur == NoNode || cur == n.id {
			return nil
		}

		m := d.g.nodes[cur]
		if m.cycleNext == n.id {
			return m
		}

		cur = m.cycleNext
	}

	return nil
}

// join records n as a member of the open cycle anchored at anchor.
func (d *cycleDetector) join(n *Node, anchor, caller NodeID) {
	a := d.g.nodes[anchor]

	if n.cycleAnchor == n.id {
		// n anchors a closed cycle of its own, merge its members into the open one.
		d.absorb(n, a, caller)
		return
	}

	n.cycleAnchor = anchor
	n.cycleNext = caller
	a.cycleRemaining++
}

// absorb moves the closed cycle anchored at n into the open cycle anchored at a.
func (d *cycleDetector) absorb(n, a *Node, caller NodeID) {
	tail := n

	for cur := n.cycleNext; cur != n.id && cur != NoNode; cur = d.g.nodes[cur].cycleNext {
		member := d.g.nodes[cur]
		member.cycleAnchor = a.id
		tail = member
	}

	if tail != n {
		tail.cycleNext = caller
	} else {
		n.cycleNext = caller
	}

	a.cycleRemaining += n.cycleRemaining
	n.cycleRemaining = 0
	n.cycleAnchor = a.id
}

// Cycles lists the cyclic groups found by the last DetectCycles call, in anchor basename order.
func (g *Graph) Cycles() []Cycle {
	var out []Cycle

	for n := range g.Nodes() {
		if n.cycleAnchor != n.id {
			continue
		}

		c := Cycle{Anchor: n.Basename}
		g.walkCycle(n, func(m *Node) {
			c.Members = append(c.Members, m.Basename)
		})
		out = append(out, c)
	}

	return out
}

// walkCycle calls fn for each member of the cycle anchored at anchor, starting with the
// anchor's successor and ending with the anchor itself.
func (g *Graph) walkCycle(anchor *Node, fn func(*Node)) {
	cur := anchor.cycleNext

	for range len(g.nodes) {
		if cur == NoNode {
			return
		}

		m := g.nodes[cur]
		fn(m)

		if cur == anchor.id {
			return
		}

		cur = m.cycleNext
	}
}
