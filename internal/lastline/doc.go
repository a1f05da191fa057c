// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lastline provides a Tracker that remembers the last non-blank line written to it.
// The build orchestrator feeds it the stripped shell output so a failed build can be summarised
// by its final message.
package lastline
