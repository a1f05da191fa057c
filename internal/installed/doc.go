// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package installed answers whether a package is already installed, and at which version.
//
// FileStore keeps that information in a small YAML database that kiln updates after every
// successful build. Static serves a fixed set, which is handy in tests and dry runs.
package installed
