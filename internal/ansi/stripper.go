// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ansi

import (
	"bytes"
	"io"
)

const (
	bel = 0x07
	esc = 0x1b
	csi = 0x9b
	st  = 0x9c
)

type state int

const (
	stateData state = iota
	stateEsc1
	stateCsiDone
	stateOscDone
	stateOscDoneEsc
)

// Stripper is an io.Writer that forwards everything except ANSI control sequences and bell
// characters to the wrapped writer. Sequences split across Write calls are handled.
// It is not safe for concurrent use.
type Stripper struct {
	w     io.Writer
	state state
	// utf8Left counts the continuation bytes still expected for the current UTF-8 character.
	utf8Left int
	buf      []byte
}

var _ io.Writer = (*Stripper)(nil)

// NewStripper returns a Stripper writing to w.
func NewStripper(w io.Writer) *Stripper {
	return &Stripper{w: w}
}

// Write strips p and writes the remainder to the underlying writer. It reports len(p) on
// success, even when fewer bytes reach the underlying writer.
func (s *Stripper) Write(p []byte) (int, error) {
	s.buf = s.strip(s.buf[:0], p)

	if len(s.buf) == 0 {
		return len(p), nil
	}

	if _, err := s.w.Write(s.buf); err != nil {
		return 0, err //nolint:wrapcheck
	}

	return len(p), nil
}

// Reset returns the stripper to its initial state, discarding any partial sequence.
func (s *Stripper) Reset() {
	s.state = stateData
	s.utf8Left = 0
}

func (s *Stripper) strip(out, p []byte) []byte {
	for _, b := range p {
		switch s.state {
		case stateData:
			out = s.data(out, b)

		case stateEsc1:
			switch b {
			case '[':
				s.state = stateCsiDone
			case ']':
				s.state = stateOscDone
			default:
				out = append(out, esc, b)
				s.state = stateData
			}

		case stateCsiDone:
			if b >= 0x40 && b <= 0x7e {
				s.state = stateData
			}

		case stateOscDone:
			switch b {
			case bel, st:
				s.state = stateData
			case esc:
				s.state = stateOscDoneEsc
			}

		case stateOscDoneEsc:
			switch b {
			case '\\':
				s.state = stateData
			case esc:
			default:
				s.state = stateOscDone
			}
		}
	}

	return out
}

func (s *Stripper) data(out []byte, b byte) []byte {
	if s.utf8Left > 0 && b&0xc0 == 0x80 {
		s.utf8Left--
		return append(out, b)
	}

	s.utf8Left = 0

	switch {
	case b == bel:
		return out
	case b == esc:
		s.state = stateEsc1
		return out
	case b == csi:
		s.state = stateCsiDone
		return out
	case b >= 0xc0 && b < 0xe0:
		s.utf8Left = 1
	case b >= 0xe0 && b < 0xf0:
		s.utf8Left = 2
	case b >= 0xf0 && b < 0xf8:
		s.utf8Left = 3
	}

	return append(out, b)
}

// Strip returns s with all ANSI control sequences and bell characters removed.
func Strip(s string) string {
	var buf bytes.Buffer

	_, _ = NewStripper(&buf).Write([]byte(s))

	return buf.String()
}
