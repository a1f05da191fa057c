// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package recipe reads package build recipes.
//
// A recipe is a shell script named `<basename>.sh`. It opens with a block of `#` comments and
// `export KEY=value` metadata lines, followed by the shell commands that build the package.
// The body ends at end of file or at a line invoking one of the configured terminator commands,
// which hands the build over to the external packaging step.
package recipe
