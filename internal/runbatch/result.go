// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// ResultStatus is the outcome of a build list entry.
type ResultStatus int

const (
	// ResultStatusSuccess means the package was built.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusError means the build failed or could not be attempted.
	ResultStatusError
	// ResultStatusSkipped means the build was not needed.
	ResultStatusSkipped
	// ResultStatusUnknown is rendered with a question mark. Batch.Run reports only the entries
	// it reached and never sets it.
	ResultStatusUnknown
)

// String returns the name of the status.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	}

	return "unknown"
}

// Result represents the outcome of one build list entry.
type Result struct {
	Label       string        // Package basename, with the pass for cyclic rebuilds
	Package     string        // Package basename
	Pass        int           // 1 for the first build of a package, 2 for its cyclic rebuild
	Status      ResultStatus  // Outcome
	ExitCode    int           // Shell exit code or build sentinel
	Error       error         // Error, if any
	Reason      string        // Why the entry was skipped
	LastLine    string        // Last line of build output
	LogPath     string        // Build log, if one was written
	Duration    time.Duration // Time spent building
	Interrupted bool          // The build was cancelled while running
}

// Results is a slice of Result pointers in build order.
type Results []*Result

// HasError reports whether any entry failed.
func (r Results) HasError() bool {
	return slices.ContainsFunc(r, func(v *Result) bool {
		return v.Status == ResultStatusError
	})
}

// Interrupted reports whether the batch stopped because a build was cancelled.
func (r Results) Interrupted() bool {
	return slices.ContainsFunc(r, func(v *Result) bool {
		return v.Interrupted
	})
}

// Counts returns the number of built, failed and skipped entries.
func (r Results) Counts() (built, failed, skipped int) {
	for _, v := range r {
		switch v.Status {
		case ResultStatusSuccess:
			built++
		case ResultStatusError:
			failed++
		case ResultStatusSkipped:
			skipped++
		}
	}

	return built, failed, skipped
}

// Print outputs the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// Write outputs the results to the specified writer with default options.
func (r Results) Write(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}

func label(pkg string, pass int) string {
	if pass <= 1 {
		return pkg
	}

	return fmt.Sprintf("%s (pass %d)", pkg, pass)
}
