// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a slog.Logger in a context.Context.
//
// The default logger writes human-readable lines to stderr, with attributes rendered as
// coloured JSON. The level comes from the KILN_LOG_LEVEL environment variable and defaults to WARN.
package ctxlog
