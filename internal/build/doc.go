// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package build runs a single package recipe through a shell.
//
// The Orchestrator starts one shell per recipe, feeds it the recipe body on stdin from a writer
// goroutine, and reads the combined output on the calling goroutine. Raw output is echoed to the
// console and an ANSI-stripped copy is written to the optional log file. When a build root is
// given, the build runs in a fresh working directory that is removed afterwards.
//
// Local failures are reported with exit codes above the range a shell can produce, see
// ExitRecipeNotFound and the constants that follow it.
package build
