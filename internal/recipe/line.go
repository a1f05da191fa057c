// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package recipe

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultTerminators are the packaging commands that end a recipe body.
var DefaultTerminators = []string{"kiln-package"}

// LineKind classifies a single recipe line.
type LineKind int

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = iota
	// LineComment starts with `#` after leading whitespace.
	LineComment
	// LineExport is an `export KEY=value` assignment.
	LineExport
	// LineCommand is any other substantive shell line.
	LineCommand
	// LineTerminator invokes one of the terminator commands.
	LineTerminator
)

// String returns the name of the line kind.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineExport:
		return "export"
	case LineCommand:
		return "command"
	case LineTerminator:
		return "terminator"
	}

	return "unknown"
}

// Substantive reports whether the line carries shell content.
func (k LineKind) Substantive() bool {
	return k == LineExport || k == LineCommand
}

// Classify returns the kind of line. terminators holds command names, a line whose first word
// (or the base name of its first word) matches one of them is a terminator.
func Classify(line string, terminators []string) LineKind {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return LineBlank
	case strings.HasPrefix(trimmed, "#"):
		return LineComment
	}

	first := strings.Fields(trimmed)[0]
	if slices.Contains(terminators, first) || slices.Contains(terminators, filepath.Base(first)) {
		return LineTerminator
	}

	if _, _, ok := parseExport(trimmed); ok {
		return LineExport
	}

	return LineCommand
}

// parseExport splits `export KEY=value` into its key and unquoted value.
func parseExport(trimmed string) (string, string, bool) {
	rest, ok := strings.CutPrefix(trimmed, "export")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", "", false
	}

	key, value, ok := strings.Cut(strings.TrimSpace(rest), "=")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}

	return key, unquote(strings.TrimSpace(value)), true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}

	return v
}
