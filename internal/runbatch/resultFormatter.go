// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"time"

	"github.com/matt-FFFFFF/kiln/internal/color"
)

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeLastLine    bool // Whether to show the last output line of failed builds
	IncludeLogPath     bool // Whether to show where the log of failed builds was written
	ShowSuccessDetails bool // Whether to show durations for successful builds
	Summary            bool // Whether to finish with a count of outcomes
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeLastLine:    true,
		IncludeLogPath:     true,
		ShowSuccessDetails: false,
		Summary:            true,
	}
}

// WriteResults writes a line per result, with details for failures, to w.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if err := writeResult(w, r, options); err != nil {
			return err
		}
	}

	if !options.Summary {
		return nil
	}

	built, failed, skipped := results.Counts()

	_, err := fmt.Fprintf(w, "%d built, %d failed, %d skipped\n", built, failed, skipped)

	return err //nolint:wrapcheck
}

func writeResult(w io.Writer, r *Result, options *OutputOptions) error {
	var statusStr, labelPrefix string

	switch r.Status {
	case ResultStatusSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case ResultStatusError:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	name := r.Label
	if name == "" {
		name = label(r.Package, r.Pass)
	}

	if _, err := fmt.Fprintf(w, "%s %s%s%s", statusStr, labelPrefix, name, color.ControlString(color.Reset)); err != nil {
		return err //nolint:wrapcheck
	}

	if r.ExitCode != 0 {
		fmt.Fprintf(w, " (exit code: %d)", r.ExitCode) // nolint:errcheck
	}

	if r.Status == ResultStatusSuccess && options.ShowSuccessDetails && r.Duration > 0 {
		fmt.Fprintf(w, " in %s", r.Duration.Round(time.Millisecond)) // nolint:errcheck
	}

	fmt.Fprintln(w) // nolint:errcheck

	if r.Status == ResultStatusSkipped && r.Reason != "" {
		fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Skipped:", color.FgYellow), r.Reason) // nolint:errcheck
	}

	if r.Status != ResultStatusError {
		return nil
	}

	if r.Error != nil {
		fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), r.Error) // nolint:errcheck
	}

	if options.IncludeLastLine && r.LastLine != "" {
		fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Last output:", color.FgHiRed), r.LastLine) // nolint:errcheck
	}

	if options.IncludeLogPath && r.LogPath != "" {
		fmt.Fprintf(w, "  ➜ Log: %s\n", r.LogPath) // nolint:errcheck
	}

	return nil
}
