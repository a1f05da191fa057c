// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package depgraph

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, loader mapLoader, names ...string) *Plan {
	t.Helper()

	p, err := Resolve(context.Background(), loader, names...)
	require.NoError(t, err)

	return p
}

func allNames(loader mapLoader) []string {
	var names []string
	for k := range loader {
		names = append(names, k)
	}

	slices.Sort(names)

	return names
}

func TestBuildList_WorkedScenario(t *testing.T) {
	loader := mapLoader{}.
		add(pkg("alpha")).
		add(pkg("beta", "alpha")).
		add(pkg("gamma", "delta")).
		add(pkg("delta", "gamma")).
		add(pkg("epsilon", "gamma"))

	p := resolve(t, loader, "alpha", "beta", "gamma", "delta", "epsilon")

	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "gamma", "delta", "epsilon"}, p.Names())
	assert.Equal(t, 1, p.Cycles)
	assert.Equal(t, []Cycle{{Anchor: "delta", Members: []string{"gamma", "delta"}}}, p.Graph.Cycles())
}

func TestBuildList_AcyclicIsTopological(t *testing.T) {
	loader := mapLoader{}

	for i := range 30 {
		r := pkg(fmt.Sprintf("p%02d", i))

		for j := range i {
			switch {
			case (i*7+j*3)%5 == 0:
				r.Dependencies = append(r.Dependencies, fmt.Sprintf("p%02d", j))
			case (i+j)%11 == 0:
				r.BuildDependencies = append(r.BuildDependencies, fmt.Sprintf("p%02d", j))
			}
		}

		loader.add(r)
	}

	p := resolve(t, loader, "p29", "p17", "p03")
	assert.Equal(t, 0, p.Cycles)
	assert.Len(t, p.List, p.Graph.Len(), "no cycles means no replayed entries")

	pos := make(map[string]int)
	for i, n := range p.List {
		pos[n.Basename] = i
	}

	for _, n := range p.List {
		for dep := range n.Dependencies.All() {
			assert.Less(t, pos[dep], pos[n.Basename], "%s must be built before %s", dep, n.Basename)
		}

		for dep := range n.BuildDependencies.All() {
			assert.Less(t, pos[dep], pos[n.Basename], "%s must be built before %s", dep, n.Basename)
		}
	}
}

func TestBuildList_LengthInvariant(t *testing.T) {
	loader := mapLoader{}.
		add(pkg("base")).
		add(pkg("x", "y")).
		add(pkg("y", "z")).
		add(pkg("z", "x", "base")).
		add(pkg("self", "self")).
		add(pkg("p", "q")).
		add(pkg("q", "p")).
		add(pkg("top", "x", "p", "self"))

	p := resolve(t, loader, allNames(loader)...)

	cycleSizes := 0
	for _, c := range p.Graph.Cycles() {
		cycleSizes += len(c.Members)
	}

	assert.Equal(t, 3, p.Cycles)
	assert.Equal(t, 6, cycleSizes)
	assert.Len(t, p.List, p.Graph.Len()+cycleSizes)

	count := make(map[string]int)
	for _, name := range p.Names() {
		count[name]++
	}

	for _, name := range []string{"x", "y", "z", "self", "p", "q"} {
		assert.Equal(t, 2, count[name], "cycle member %s should be built twice", name)
	}

	for _, name := range []string{"base", "top"} {
		assert.Equal(t, 1, count[name], "acyclic package %s should be built once", name)
	}

	assert.Equal(t, "top", p.Names()[len(p.List)-1])
}

func TestBuildList_SelfDependency(t *testing.T) {
	p := resolve(t, mapLoader{}.add(pkg("self", "self")), "self")

	assert.Equal(t, []string{"self", "self"}, p.Names())
	assert.Equal(t, 1, p.Cycles)
}

func TestBuildList_OptionalEdges(t *testing.T) {
	app := pkg("app")
	app.OptionalDependencies = []string{"zz"}

	gamma := pkg("gamma", "delta")
	gamma.OptionalDependencies = []string{"omega"}

	loader := mapLoader{}.
		add(app).
		add(pkg("zz")).
		add(gamma).
		add(pkg("delta", "gamma")).
		add(pkg("omega"))

	p := resolve(t, loader, "app", "gamma")

	assert.Equal(t, []string{"zz", "app", "gamma", "delta", "gamma", "delta", "omega"}, p.Names(),
		"optional edges are followed from acyclic packages only")
}

func TestBuildList_SecondCycleThroughAnchor(t *testing.T) {
	loader := mapLoader{}.
		add(pkg("a", "b", "c")).
		add(pkg("b", "a")).
		add(pkg("c", "a"))

	p := resolve(t, loader, "a")

	assert.Equal(t, 1, p.Cycles)
	assert.Equal(t, []Cycle{{Anchor: "a", Members: []string{"c", "b", "a"}}}, p.Graph.Cycles())
	assert.Equal(t, []string{"b", "c", "a", "c", "b", "a"}, p.Names())
}

func TestBuildList_NestedCycleMerged(t *testing.T) {
	m := pkg("m", "c")
	m.BuildDependencies = []string{"a"}

	loader := mapLoader{}.
		add(pkg("a", "m")).
		add(m).
		add(pkg("c", "m"))

	p := resolve(t, loader, "a")

	assert.Equal(t, 1, p.Cycles)
	assert.Equal(t, []Cycle{{Anchor: "a", Members: []string{"m", "c", "a"}}}, p.Graph.Cycles())
	assert.Equal(t, []string{"c", "m", "a", "m", "c", "a"}, p.Names())
}

func TestBuildList_SplicedCycleKeepsAbsorbedMembers(t *testing.T) {
	// a closes a self cycle first, then a second cycle a -> d -> c -> a that has absorbed
	// the closed cycle d -> b -> d.
	loader := mapLoader{}.
		add(pkg("a", "a", "d")).
		add(pkg("b", "d")).
		add(pkg("c", "a")).
		add(pkg("d", "b", "c"))

	p := resolve(t, loader, "a")

	assert.Equal(t, 1, p.Cycles)
	assert.Equal(t, []Cycle{{Anchor: "a", Members: []string{"c", "d", "b", "a"}}}, p.Graph.Cycles())
	assert.Equal(t, []string{"b", "c", "d", "a", "c", "d", "b", "a"}, p.Names())
	assertCycleChains(t, p)
}

// assertCycleChains checks that every anchor's chain holds exactly as many members as the anchor
// counted, that each cyclic node is on exactly one chain, and that every member is replayed once.
func assertCycleChains(t *testing.T, p *Plan) {
	t.Helper()

	onChain := make(map[string]string)
	members := 0

	for _, c := range p.Graph.Cycles() {
		anchor, ok := p.Graph.Lookup(c.Anchor)
		require.True(t, ok)

		assert.Len(t, c.Members, anchor.cycleRemaining, "anchor %s", c.Anchor)
		require.NotEmpty(t, c.Members)
		assert.Equal(t, c.Anchor, c.Members[len(c.Members)-1])

		for _, name := range c.Members {
			prev, dup := onChain[name]
			assert.False(t, dup, "%s on chains of %s and %s", name, prev, c.Anchor)
			onChain[name] = c.Anchor

			n, ok := p.Graph.Lookup(name)
			require.True(t, ok)
			assert.Equal(t, anchor.ID(), n.cycleAnchor, "member %s", name)
		}

		members += len(c.Members)
	}

	for n := range p.Graph.Nodes() {
		if n.InCycle() {
			assert.Contains(t, onChain, n.Basename, "cyclic node missing from every chain")
		}
	}

	assert.Equal(t, p.Cycles, len(p.Graph.Cycles()))
	assert.Len(t, p.List, p.Graph.Len()+members)

	counts := make(map[string]int)
	for _, n := range p.List {
		counts[n.Basename]++
	}

	for n := range p.Graph.Nodes() {
		want := 1
		if n.InCycle() {
			want = 2
		}

		assert.Equal(t, want, counts[n.Basename], "entries for %s", n.Basename)
	}
}

func TestBuildList_CycleChainsOnSeededGraphs(t *testing.T) {
	for seed := range uint64(500) {
		rng := rand.New(rand.NewPCG(seed, 0x6b696c6e))
		size := 2 + rng.IntN(11)
		mandatory, build, optional := rng.Float64()*0.5, rng.Float64()*0.25, rng.Float64()*0.25

		names := make([]string, size)
		for i := range names {
			names[i] = fmt.Sprintf("n%02d", i)
		}

		pick := func(prob float64) []string {
			var out []string

			for _, name := range names {
				if rng.Float64() < prob {
					out = append(out, name)
				}
			}

			return out
		}

		loader := mapLoader{}

		for _, name := range names {
			r := pkg(name, pick(mandatory)...)
			r.BuildDependencies = pick(build)
			r.OptionalDependencies = pick(optional)
			loader.add(r)
		}

		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			assertCycleChains(t, resolve(t, loader, names...))
		})
	}
}

func TestBuildList_Repeatable(t *testing.T) {
	loader := mapLoader{}.
		add(pkg("gamma", "delta")).
		add(pkg("delta", "gamma"))

	p := resolve(t, loader, "gamma")

	assert.Equal(t, p.Names(), (&Plan{List: p.Graph.BuildList()}).Names())
	assert.Equal(t, p.Cycles, p.Graph.DetectCycles())
	assert.Equal(t, p.Names(), (&Plan{List: p.Graph.BuildList()}).Names())

	for n := range p.Graph.Nodes() {
		assert.Equal(t, Unvisited, n.walk, "walk state is reset after each pass")
	}
}
