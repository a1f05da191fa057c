// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package orderedset provides a sorted, duplicate-free collection backed by a red-black tree.
//
// Items are kept in comparator order, so iteration and indexed access always yield ascending
// keys. The only set-algebra primitive offered is MergeDiff, a single linear pass over two sets
// that reports which items are shared and which belong to only one side.
package orderedset
