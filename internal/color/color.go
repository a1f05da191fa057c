// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	prefix = "\033["
	suffix = "m"
	reset  = "\033[0m"
)

// Code is an SGR parameter.
type Code int

// Text attributes.
const (
	Reset Code = 0
	Bold  Code = 1
	Faint Code = 2
)

// Foreground colors.
const (
	FgRed       Code = 31
	FgGreen     Code = 32
	FgYellow    Code = 33
	FgBlue      Code = 34
	FgCyan      Code = 36
	FgWhite     Code = 37
	FgHiRed     Code = 91
	FgHiMagenta Code = 95
	FgHiWhite   Code = 97
)

var enabled = isColorCapable()

// Enabled reports whether color output is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled overrides terminal detection and returns the previous setting.
func SetEnabled(v bool) bool {
	prev := enabled
	enabled = v

	return prev
}

// ControlString returns the escape sequence selecting codes, or an empty string when color is off.
func ControlString(codes ...Code) string {
	if !enabled || len(codes) == 0 {
		return ""
	}

	sb := strings.Builder{}
	sb.WriteString(prefix)

	for i, c := range codes {
		if i > 0 {
			sb.WriteByte(';')
		}

		sb.WriteString(strconv.Itoa(int(c)))
	}

	sb.WriteString(suffix)

	return sb.String()
}

// Colorize wraps str in codes followed by a reset.
func Colorize(str string, codes ...Code) string {
	if !enabled {
		return str
	}

	return ControlString(codes...) + str + reset
}

func isColorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
