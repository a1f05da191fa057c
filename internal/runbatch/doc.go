// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a build plan one package at a time and reports what happened to each
// entry. Packages already installed at the planned version are skipped, a package whose
// dependencies are unavailable or failed is not attempted, and the batch stops at the first
// failure unless asked to keep going.
package runbatch
