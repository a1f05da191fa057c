// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package depgraph builds the package dependency graph and derives a build order from it.
//
// Construction pulls in the transitive closure of the requested packages through a
// recipe.Loader. DetectCycles then annotates every node taking part in a dependency cycle with
// its cycle anchor and a circular successor chain. BuildList sorts the graph depth first in
// post-order and, once every member of a cycle has been built, replays the cycle so each member
// is rebuilt against the others.
//
// Nodes live in an arena owned by the Graph and refer to each other by NodeID.
package depgraph
