// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/kiln/internal/ansi"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/lastline"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Exit codes reported for failures that happen outside the shell.
// They are above the range of shell exit statuses.
const (
	ExitRecipeNotFound = 0xFFFF
	ExitSpawnFailed    = 0xFFFE
	ExitWorkDirFailed  = 0xFFFD
	ExitWriterFailed   = 0xFFFC
	ExitInterrupted    = 0xFFFB
)

const (
	DefaultChunkSize       = 4096
	DefaultCleanupRetries  = 30
	DefaultCleanupInterval = time.Second

	drainTimeout   = 2 * time.Second
	lastLineLength = 120
)

var (
	// ErrRecipeNotFound is returned when the recipe file cannot be opened.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrCreatePipe is returned when the shell's stdin or output pipe cannot be created.
	ErrCreatePipe = errors.New("failed to create pipe")
	// ErrCouldNotStartProcess is returned when the shell cannot be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrWaitProcess is returned when the shell's exit status cannot be collected.
	ErrWaitProcess = errors.New("could not wait for process")
	// ErrWorkDirCreate is returned when the working directory cannot be created.
	ErrWorkDirCreate = errors.New("could not create work directory")
	// ErrInterrupted is returned when the build context is cancelled before the shell exits.
	ErrInterrupted = errors.New("build interrupted")
)

// DefaultShell runs recipes when no shell is configured.
var DefaultShell = []string{"/bin/sh"}

// shellEnv is applied on top of the inherited environment.
var shellEnv = map[string]string{
	"PS1":            "kiln$ ",
	"PS2":            "> ",
	"PS4":            "+ ",
	"PAGER":          "cat",
	"GIT_PAGER":      "cat",
	"TERM":           "xterm-256color",
	"CLICOLOR_FORCE": "1",
}

// Orchestrator runs package recipes. The zero value is usable, zero fields take defaults.
// An Orchestrator runs one build at a time.
type Orchestrator struct {
	Shell           []string          // Shell command and arguments, the recipe is its stdin.
	Env             map[string]string // Extra environment, overrides the fixed shell settings.
	Terminators     []string          // Commands that end the recipe body.
	Console         io.Writer         // Receives the raw shell output, defaults to os.Stdout.
	Fs              afero.Fs          // Filesystem for recipes, logs and work directories.
	CleanupRetries  int               // Attempts to remove the work directory.
	CleanupInterval time.Duration     // Pause between removal attempts.
	ChunkSize       int               // Size of the output read buffer.
}

// Job describes a single package build.
type Job struct {
	Basename   string
	RecipePath string
	LogPath    string // Optional plain text log of the output.
	BuildRoot  string // Optional parent of a disposable working directory.
}

// Result is the outcome of a build.
type Result struct {
	Basename    string
	ExitCode    int
	Err         error
	Interrupted bool
	WorkDir     string
	Duration    time.Duration
	LastLine    string // Last non-blank line of output, ANSI stripped.
}

// Success reports whether the shell exited with status 0 and nothing else went wrong.
func (r Result) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Run builds a package by streaming its recipe into a new shell. It returns once the shell has
// exited or been killed and the working directory has been removed. Cancelling ctx kills the
// shell's process group and yields ExitInterrupted.
func (o *Orchestrator) Run(ctx context.Context, job Job) (res Result) {
	start := time.Now()
	ctx = ctxlog.With(ctx, "package", job.Basename)
	res.Basename = job.Basename

	defer func() {
		res.Duration = time.Since(start)
		ctxlog.Debug(ctx, "build finished", "exitCode", res.ExitCode, "duration", res.Duration, "error", res.Err)
	}()

	fs := o.fs()

	rcp, err := fs.Open(job.RecipePath)
	if err != nil {
		res.ExitCode = ExitRecipeNotFound
		res.Err = errors.Join(ErrRecipeNotFound, err)

		return res
	}
	defer rcp.Close() //nolint:errcheck

	logFile := o.openLog(ctx, fs, job.LogPath)
	if logFile != nil {
		defer logFile.Close() //nolint:errcheck
	}

	shell, err := o.shellPath()
	if err != nil {
		res.ExitCode = ExitSpawnFailed
		res.Err = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	rIn, wIn, err := os.Pipe()
	if err != nil {
		res.ExitCode = ExitWriterFailed
		res.Err = errors.Join(ErrCreatePipe, err)

		return res
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		_ = rIn.Close()
		_ = wIn.Close()
		res.ExitCode = ExitWriterFailed
		res.Err = errors.Join(ErrCreatePipe, err)

		return res
	}

	ps, err := os.StartProcess(shell, o.shellArgs(), &os.ProcAttr{
		Env:   o.environ(),
		Files: []*os.File{rIn, wOut, wOut},
		Sys:   sysProcAttr(),
	})

	// The shell holds its own copies now.
	_ = rIn.Close()
	_ = wOut.Close()

	if err != nil {
		_ = wIn.Close()
		_ = rOut.Close()
		res.ExitCode = ExitSpawnFailed
		res.Err = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	ctxlog.Debug(ctx, "shell started", "pid", ps.Pid, "shell", shell)

	if job.BuildRoot != "" {
		dir := filepath.Join(job.BuildRoot, fmt.Sprintf("%d-%s", ps.Pid, job.Basename))
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			_ = wIn.Close()
			_ = killGroup(ps)
			_ = rOut.Close()
			_, _ = ps.Wait()
			res.ExitCode = ExitWorkDirFailed
			res.Err = errors.Join(ErrWorkDirCreate, err)

			return res
		}

		res.WorkDir = dir
		defer o.removeWorkDir(context.WithoutCancel(ctx), fs, dir)
	}

	var writer errgroup.Group

	writer.Go(func() error {
		defer wIn.Close() //nolint:errcheck
		return feed(ctx, rcp, wIn, o.terminators(), res.WorkDir)
	})

	var (
		ks       killSwitch
		watchdog sync.WaitGroup
		done     = make(chan struct{})
	)

	watchdog.Add(1)

	go func() {
		defer watchdog.Done()

		select {
		case <-ctx.Done():
			ks.kill(func() {
				ctxlog.Info(ctx, "build interrupted, killing shell", "pid", ps.Pid)

				if err := killGroup(ps); err != nil {
					ctxlog.Error(ctx, "could not kill shell", "pid", ps.Pid, "error", err)
				}

				_ = rOut.SetReadDeadline(time.Now().Add(drainTimeout))
			})
		case <-done:
		}
	}()

	tracker := lastline.New()
	o.pump(ctx, rOut, logFile, tracker)

	killed := ks.drain()

	close(done)
	watchdog.Wait()

	_ = rOut.Close()
	writeErr := writer.Wait()
	state, waitErr := ps.Wait()

	res.LastLine = tracker.Last(lastLineLength)

	switch {
	case killed && !exitedOnItsOwn(state):
		res.ExitCode = ExitInterrupted
		res.Interrupted = true
		res.Err = errors.Join(ErrInterrupted, context.Cause(ctx))
	case waitErr != nil:
		res.ExitCode = ExitSpawnFailed
		res.Err = errors.Join(ErrWaitProcess, waitErr)
	default:
		res.ExitCode = exitCode(state)

		if writeErr != nil && !isBrokenPipe(writeErr) {
			res.Err = writeErr
		}
	}

	return res
}

// pump copies the shell output to the console, and an ANSI-stripped copy to the log file and
// the last line tracker, until the output is closed.
func (o *Orchestrator) pump(ctx context.Context, r io.Reader, logFile io.Writer, tracker *lastline.Tracker) {
	sinks := []io.Writer{tracker}
	if logFile != nil {
		sinks = append(sinks, logFile)
	}

	console := o.console()
	stripped := ansi.NewStripper(io.MultiWriter(sinks...))
	buf := make([]byte, o.chunkSize())
	logFailed := false

	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = console.Write(buf[:n])

			if _, werr := stripped.Write(buf[:n]); werr != nil && !logFailed {
				ctxlog.Warn(ctx, "could not write build log", "error", werr)
				logFailed = true
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
				ctxlog.Warn(ctx, "could not read shell output", "error", err)
			}

			return
		}
	}
}

// openLog creates the log file. A log that cannot be created is reported and skipped.
func (o *Orchestrator) openLog(ctx context.Context, fs afero.Fs, path string) afero.File {
	if path == "" {
		return nil
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		ctxlog.Warn(ctx, "could not create log directory, continuing without a log", "path", path, "error", err)
		return nil
	}

	f, err := fs.Create(path)
	if err != nil {
		ctxlog.Warn(ctx, "could not create log file, continuing without a log", "path", path, "error", err)
		return nil
	}

	return f
}

// removeWorkDir deletes dir, retrying while something still holds files open in it.
// Failure is only logged.
func (o *Orchestrator) removeWorkDir(ctx context.Context, fs afero.Fs, dir string) {
	retries := o.CleanupRetries
	if retries <= 0 {
		retries = DefaultCleanupRetries
	}

	interval := o.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	var err error

	for attempt := 1; attempt <= retries; attempt++ {
		if err = fs.RemoveAll(dir); err == nil {
			ctxlog.Debug(ctx, "work directory removed", "dir", dir, "attempt", attempt)
			return
		}

		ctxlog.Debug(ctx, "work directory removal failed", "dir", dir, "attempt", attempt, "error", err)

		if attempt < retries {
			time.Sleep(interval)
		}
	}

	ctxlog.Warn(ctx, "could not remove work directory", "dir", dir, "attempts", retries, "error", err)
}

func (o *Orchestrator) environ() []string {
	overrides := maps.Clone(shellEnv)
	maps.Copy(overrides, o.Env)

	env := slices.DeleteFunc(os.Environ(), func(kv string) bool {
		k, _, _ := strings.Cut(kv, "=")
		_, ok := overrides[k]

		return ok
	})

	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, k+"="+overrides[k])
	}

	return env
}

func (o *Orchestrator) shellArgs() []string {
	if len(o.Shell) == 0 {
		return DefaultShell
	}

	return o.Shell
}

func (o *Orchestrator) shellPath() (string, error) {
	return exec.LookPath(o.shellArgs()[0]) //nolint:wrapcheck
}

func (o *Orchestrator) terminators() []string {
	if o.Terminators == nil {
		return recipe.DefaultTerminators
	}

	return o.Terminators
}

func (o *Orchestrator) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}

	return o.Fs
}

func (o *Orchestrator) console() io.Writer {
	if o.Console == nil {
		return os.Stdout
	}

	return o.Console
}

func (o *Orchestrator) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}

	return o.ChunkSize
}
