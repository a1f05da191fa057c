// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/kiln/internal/build"
	"github.com/matt-FFFFFF/kiln/internal/depgraph"
	"github.com/matt-FFFFFF/kiln/internal/installed"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string]*recipe.Recipe

func (m mapLoader) Load(_ context.Context, basename string) (*recipe.Recipe, error) {
	r, ok := m[basename]
	if !ok {
		return nil, recipe.ErrNotFound
	}

	return r, nil
}

func pkg(name, version string, deps ...string) *recipe.Recipe {
	return &recipe.Recipe{
		Basename:     name,
		Path:         filepath.Join("/recipes", name+recipe.Extension),
		Version:      version,
		Dependencies: deps,
		Buildable:    true,
	}
}

func loaderOf(recipes ...*recipe.Recipe) mapLoader {
	m := mapLoader{}
	for _, r := range recipes {
		m[r.Basename] = r
	}

	return m
}

// fakeBuilder records jobs and returns canned results keyed by basename.
type fakeBuilder struct {
	mu      sync.Mutex
	jobs    []build.Job
	results map[string]build.Result
	onRun   func(job build.Job)
}

func (f *fakeBuilder) Run(_ context.Context, job build.Job) build.Result {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	if f.onRun != nil {
		f.onRun(job)
	}

	if r, ok := f.results[job.Basename]; ok {
		r.Basename = job.Basename
		return r
	}

	return build.Result{Basename: job.Basename, LastLine: "ok"}
}

func (f *fakeBuilder) built() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.jobs))
	for i, j := range f.jobs {
		out[i] = j.Basename
	}

	return out
}

func plan(t *testing.T, loader mapLoader, names ...string) *depgraph.Plan {
	t.Helper()

	p, err := depgraph.Resolve(context.Background(), loader, names...)
	require.NoError(t, err)

	return p
}

func scenario() mapLoader {
	return loaderOf(
		pkg("alpha", "1"),
		pkg("beta", "1", "alpha"),
		pkg("gamma", "1", "delta"),
		pkg("delta", "1", "gamma"),
		pkg("epsilon", "1", "gamma"),
	)
}

func statuses(results Results) map[string]ResultStatus {
	out := make(map[string]ResultStatus)
	for _, r := range results {
		out[r.Label] = r.Status
	}

	return out
}

func TestBatch_BuildsWholeList(t *testing.T) {
	p := plan(t, scenario(), "epsilon", "beta")
	fb := &fakeBuilder{}

	var out bytes.Buffer

	b := &Batch{Builder: fb, LogDir: "/logs", BuildRoot: "/tmp/kiln", Out: &out}
	results := b.Run(context.Background(), p)

	assert.Equal(t, p.Names(), fb.built())
	assert.Len(t, results, 7)
	assert.False(t, results.HasError())

	assert.Equal(t, "gamma (pass 2)", results[4].Label)
	assert.Equal(t, 2, results[4].Pass)
	assert.Equal(t, "/logs/gamma.log", fb.jobs[2].LogPath)
	assert.Equal(t, "/logs/gamma.pass2.log", fb.jobs[4].LogPath)
	assert.Equal(t, "/recipes/gamma.sh", fb.jobs[2].RecipePath)
	assert.Equal(t, "/tmp/kiln", fb.jobs[2].BuildRoot)
	assert.Contains(t, out.String(), "epsilon [7/7]")
}

func TestBatch_SkipsInstalled(t *testing.T) {
	loader := loaderOf(
		pkg("zlib", "1.3.1"),
		pkg("expat", "2.6"),
		pkg("app", "1.0", "zlib", "expat"),
	)
	p := plan(t, loader, "app")
	store := installed.Static{"zlib": "1.3.1", "expat": "2.5"}

	fb := &fakeBuilder{}
	b := &Batch{Builder: fb, Installed: store, Out: &bytes.Buffer{}}
	results := b.Run(context.Background(), p)

	assert.Equal(t, []string{"expat", "app"}, fb.built(), "a different installed version is rebuilt")
	assert.Equal(t, ResultStatusSkipped, statuses(results)["zlib"])
	assert.Equal(t, "already installed at version 1.3.1", results[1].Reason)

	fb = &fakeBuilder{}
	b = &Batch{Builder: fb, Installed: store, Force: true, Out: &bytes.Buffer{}}
	b.Run(context.Background(), p)

	assert.Equal(t, []string{"expat", "zlib", "app"}, fb.built())
}

func TestBatch_CycleReplayIsNotSkippedAfterRecording(t *testing.T) {
	fs := afero.NewMemMapFs()

	store, err := installed.Open(fs, "/db.yaml")
	require.NoError(t, err)

	p := plan(t, scenario(), "gamma")
	fb := &fakeBuilder{}
	b := &Batch{Builder: fb, Installed: store, Out: &bytes.Buffer{}}
	results := b.Run(context.Background(), p)

	assert.Equal(t, []string{"gamma", "delta", "gamma", "delta"}, fb.built())
	assert.False(t, results.HasError())

	v, ok := store.InstalledVersion("delta")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestBatch_MissingDependency(t *testing.T) {
	loader := loaderOf(pkg("app", "1", "ghost"), pkg("other", "1"))
	p := plan(t, loader, "app", "other")

	fb := &fakeBuilder{}
	results := (&Batch{Builder: fb, KeepGoing: true, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	require.Len(t, results, 2)
	assert.Equal(t, ResultStatusError, results[0].Status)
	require.ErrorIs(t, results[0].Error, ErrMissingDependencies)
	assert.Contains(t, results[0].Error.Error(), "ghost")
	assert.Equal(t, []string{"other"}, fb.built())

	fb = &fakeBuilder{}
	results = (&Batch{Builder: fb, Installed: installed.Static{"ghost": ""}, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	assert.False(t, results.HasError(), "an installed dependency satisfies the check")
	assert.Equal(t, []string{"app", "other"}, fb.built())
}

func TestBatch_StopsAtFirstFailure(t *testing.T) {
	p := plan(t, scenario(), "alpha", "beta", "epsilon")
	fb := &fakeBuilder{results: map[string]build.Result{
		"beta": {ExitCode: 2, LastLine: "make: *** [all] Error 2"},
	}}

	results := (&Batch{Builder: fb, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	assert.Equal(t, []string{"alpha", "beta"}, fb.built())
	require.Len(t, results, 2)
	assert.Equal(t, ResultStatusError, results[1].Status)
	assert.Equal(t, 2, results[1].ExitCode)
	require.ErrorIs(t, results[1].Error, ErrBuildFailed)
	assert.Equal(t, "make: *** [all] Error 2", results[1].LastLine)
	assert.True(t, results.HasError())
}

func TestBatch_KeepGoingSkipsDependents(t *testing.T) {
	loader := scenario()
	loader["zeta"] = pkg("zeta", "1", "beta")
	p := plan(t, loader, "alpha", "beta", "epsilon", "zeta")

	fb := &fakeBuilder{results: map[string]build.Result{"beta": {ExitCode: 1}}}
	results := (&Batch{Builder: fb, KeepGoing: true, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	assert.NotContains(t, fb.built(), "zeta")
	assert.Contains(t, fb.built(), "epsilon")

	st := statuses(results)
	assert.Equal(t, ResultStatusError, st["beta"])
	assert.Equal(t, ResultStatusError, st["zeta"])
	assert.Equal(t, ResultStatusSuccess, st["epsilon"])

	for _, r := range results {
		if r.Package == "zeta" {
			require.ErrorIs(t, r.Error, ErrDependencyFailed)
		}
	}

	built, failed, skipped := results.Counts()
	assert.Equal(t, 6, built)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 0, skipped)
}

func TestBatch_StopsWhenInterrupted(t *testing.T) {
	p := plan(t, scenario(), "epsilon", "beta")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fb := &fakeBuilder{
		results: map[string]build.Result{
			"gamma": {ExitCode: build.ExitInterrupted, Err: build.ErrInterrupted, Interrupted: true},
		},
		onRun: func(job build.Job) {
			if job.Basename == "gamma" {
				cancel()
			}
		},
	}

	results := (&Batch{Builder: fb, KeepGoing: true, Out: &bytes.Buffer{}}).Run(ctx, p)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, fb.built())
	assert.True(t, results.Interrupted())
	assert.Equal(t, build.ExitInterrupted, results[len(results)-1].ExitCode)
}

func TestBatch_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fb := &fakeBuilder{}
	results := (&Batch{Builder: fb, Out: &bytes.Buffer{}}).Run(ctx, plan(t, scenario(), "beta"))

	assert.Empty(t, results)
	assert.Empty(t, fb.built())
}

func TestBatch_DryRun(t *testing.T) {
	p := plan(t, scenario(), "beta")
	fb := &fakeBuilder{}

	results := (&Batch{Builder: fb, DryRun: true, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	assert.Empty(t, fb.built())
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, ResultStatusSkipped, r.Status)
		assert.Equal(t, "dry run", r.Reason)
	}
}

func TestBatch_StoppedRunReportsOnlyReachedEntries(t *testing.T) {
	p := plan(t, scenario(), "alpha", "beta", "epsilon")
	fb := &fakeBuilder{results: map[string]build.Result{"alpha": {ExitCode: 1}}}

	results := (&Batch{Builder: fb, Out: &bytes.Buffer{}}).Run(context.Background(), p)

	require.Len(t, results, 1)
	assert.Less(t, len(results), len(p.List))

	for _, r := range results {
		assert.NotEqual(t, ResultStatusUnknown, r.Status)
	}
}
