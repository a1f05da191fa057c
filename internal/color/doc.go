// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI SGR codes for the build summary and the log handler.
// Output is only coloured when stdout is a terminal or FORCE_COLOR is set, NO_COLOR always wins.
package color
