// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ansi removes terminal escape sequences from a byte stream so build output can be
// written to plain text log files.
package ansi
