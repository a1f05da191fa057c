// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/kiln/internal/build"
	"github.com/matt-FFFFFF/kiln/internal/color"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/depgraph"
	"github.com/matt-FFFFFF/kiln/internal/installed"
)

var (
	// ErrMissingDependencies is returned for a package whose dependencies are neither planned
	// nor installed.
	ErrMissingDependencies = errors.New("missing dependencies")
	// ErrDependencyFailed is returned for a package whose dependency failed to build.
	ErrDependencyFailed = errors.New("dependency failed to build")
	// ErrBuildFailed is returned when the shell exits with a non-zero status.
	ErrBuildFailed = errors.New("build failed")
)

// Builder builds a single package.
type Builder interface {
	Run(ctx context.Context, job build.Job) build.Result
}

var _ Builder = (*build.Orchestrator)(nil)

// Batch runs the build list of a plan.
type Batch struct {
	Builder   Builder
	Installed installed.Store // Optional. Recorder implementations learn about every build.
	BuildRoot string          // Passed to every job.
	LogDir    string          // Build logs are written here when set.
	Force     bool            // Build packages that are already installed.
	KeepGoing bool            // Continue with unrelated packages after a failure.
	DryRun    bool            // Report what would be built without building.
	Out       io.Writer       // Progress messages, defaults to os.Stdout.
}

// Run works through the build list in order and returns a result per entry it reached.
// Installed packages are decided once, before the first build, so the rebuild of a cycle is
// never skipped because its first pass was just recorded.
func (b *Batch) Run(ctx context.Context, plan *depgraph.Plan) Results {
	var (
		out     = b.out()
		skips   = b.installedSkips(plan.Graph)
		failed  = make(map[string]struct{})
		passes  = make(map[string]int)
		results = make(Results, 0, len(plan.List))
		total   = len(plan.List)
	)

	for i, n := range plan.List {
		if ctx.Err() != nil {
			ctxlog.Warn(ctx, "interrupted, not starting remaining builds", "remaining", total-i)
			break
		}

		passes[n.Basename]++
		pass := passes[n.Basename]

		if reason, ok := skips[n.Basename]; ok {
			if pass == 1 {
				results = append(results, &Result{
					Label:   label(n.Basename, pass),
					Package: n.Basename,
					Pass:    pass,
					Status:  ResultStatusSkipped,
					Reason:  reason,
				})
			}

			continue
		}

		if _, ok := failed[n.Basename]; ok {
			continue
		}

		res := &Result{
			Label:   label(n.Basename, pass),
			Package: n.Basename,
			Pass:    pass,
		}

		if err := b.checkDependencies(plan.Graph, n, failed); err != nil {
			ctxlog.Debug(ctx, "dependency check failed", "package", n.Basename, "error", err)
			res.Status = ResultStatusError
			res.Error = err
			results = append(results, res)
			failed[n.Basename] = struct{}{}

			if !b.KeepGoing {
				break
			}

			continue
		}

		if b.DryRun {
			res.Status = ResultStatusSkipped
			res.Reason = "dry run"
			results = append(results, res)

			continue
		}

		fmt.Fprintf(out, "%s %s [%d/%d] at %s\n", // nolint:errcheck
			color.Colorize("==> Building", color.Bold, color.FgBlue), res.Label, i+1, total,
			time.Now().Format(ctxlog.TimeFormat))

		br := b.Builder.Run(ctx, build.Job{
			Basename:   n.Basename,
			RecipePath: n.RecipePath,
			LogPath:    b.logPath(n.Basename, pass),
			BuildRoot:  b.BuildRoot,
		})

		res.ExitCode = br.ExitCode
		res.Error = br.Err
		res.LastLine = br.LastLine
		res.LogPath = b.logPath(n.Basename, pass)
		res.Duration = br.Duration
		res.Interrupted = br.Interrupted

		if br.Success() {
			res.Status = ResultStatusSuccess
			b.record(ctx, n)
		} else {
			res.Status = ResultStatusError
			if res.Error == nil {
				res.Error = ErrBuildFailed
			}

			failed[n.Basename] = struct{}{}
		}

		results = append(results, res)

		fmt.Fprintf(out, "%s %s in %s\n", // nolint:errcheck
			color.Colorize("==> Finished", color.Bold, color.FgBlue), res.Label, res.Duration.Round(time.Millisecond))

		if br.Interrupted || (!br.Success() && !b.KeepGoing) {
			break
		}
	}

	return results
}

// installedSkips maps packages that need no build to the reason.
func (b *Batch) installedSkips(g *depgraph.Graph) map[string]string {
	skips := make(map[string]string)

	if b.Force || b.Installed == nil {
		return skips
	}

	for n := range g.Nodes() {
		v, ok := b.Installed.InstalledVersion(n.Basename)
		if !ok {
			continue
		}

		switch {
		case n.Version == "" || v == "":
			skips[n.Basename] = "already installed"
		case v == n.Version:
			skips[n.Basename] = "already installed at version " + v
		}
	}

	return skips
}

// checkDependencies returns an error when a mandatory or build dependency of n is neither
// planned nor installed, or has failed.
func (b *Batch) checkDependencies(g *depgraph.Graph, n *depgraph.Node, failed map[string]struct{}) error {
	missing := slices.DeleteFunc(g.Missing(n, g.Packages()), func(dep string) bool {
		return b.Installed != nil && b.Installed.IsInstalled(dep)
	})

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDependencies, strings.Join(missing, ", "))
	}

	var broken []string

	for dep := range failed {
		if n.Dependencies.Contains(dep) || n.BuildDependencies.Contains(dep) {
			broken = append(broken, dep)
		}
	}

	if len(broken) > 0 {
		slices.Sort(broken)
		return fmt.Errorf("%w: %s", ErrDependencyFailed, strings.Join(broken, ", "))
	}

	return nil
}

func (b *Batch) record(ctx context.Context, n *depgraph.Node) {
	r, ok := b.Installed.(installed.Recorder)
	if !ok {
		return
	}

	if err := r.Record(n.Basename, n.Version); err != nil {
		ctxlog.Warn(ctx, "could not record installed package", "package", n.Basename, "error", err)
	}
}

func (b *Batch) logPath(basename string, pass int) string {
	if b.LogDir == "" {
		return ""
	}

	if pass <= 1 {
		return filepath.Join(b.LogDir, basename+".log")
	}

	return filepath.Join(b.LogDir, fmt.Sprintf("%s.pass%d.log", basename, pass))
}

func (b *Batch) out() io.Writer {
	if b.Out == nil {
		return os.Stdout
	}

	return b.Out
}
