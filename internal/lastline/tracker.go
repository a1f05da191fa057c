// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lastline

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

var _ io.Writer = (*Tracker)(nil)

// Tracker is an io.Writer that keeps the last complete, non-blank line written to it.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	last    string
	partial bytes.Buffer // bytes after the last newline
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Write implements io.Writer. It never fails.
func (t *Tracker) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := p

	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			t.partial.Write(data)
			break
		}

		t.partial.Write(data[:i])
		t.commit()

		data = data[i+1:]
	}

	return len(p), nil
}

// commit must be called with the write lock held.
func (t *Tracker) commit() {
	line := t.partial.String()
	t.partial.Reset()

	// Carriage returns redraw the line, only the final rendering counts.
	if i := strings.LastIndexByte(strings.TrimRight(line, "\r"), '\r'); i >= 0 {
		line = line[i+1:]
	}

	line = strings.TrimSpace(line)
	if line != "" {
		t.last = line
	}
}

// Last returns the last complete non-blank line, or the pending partial line when no complete
// line has been seen yet. If maxLength > 3 and the line is longer, it is truncated and ends
// with "...".
func (t *Tracker) Last(maxLength int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	line := t.last
	if line == "" {
		line = strings.TrimSpace(t.partial.String())
	}

	if maxLength > 3 && len(line) > maxLength {
		line = line[:maxLength-3] + "..."
	}

	return line
}

// Partial returns the bytes written after the last newline.
func (t *Tracker) Partial() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.partial.String()
}

// Reset forgets everything written so far.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = ""
	t.partial.Reset()
}
