// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orderedset

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrReadLines is returned when a line file cannot be read.
	ErrReadLines = errors.New("failed to read line file")
	// ErrWriteLines is returned when a line file cannot be written.
	ErrWriteLines = errors.New("failed to write line file")
)

// ReadLines loads a set of strings from path, one item per line.
// Blank lines are ignored and trailing carriage returns are trimmed.
func ReadLines(fs afero.Fs, path string) (*Set[string], error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadLines, err)
	}
	defer f.Close() //nolint:errcheck

	s := NewOrdered[string]()
	sc := bufio.NewScanner(f)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		s.Insert(line)
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Join(ErrReadLines, err)
	}

	return s, nil
}

// WriteLines saves the set to path, one item per line in sorted order.
func WriteLines(fs afero.Fs, path string, s *Set[string]) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Join(ErrWriteLines, err)
	}

	w := bufio.NewWriter(f)
	for item := range s.All() {
		if item == "" {
			continue
		}

		if _, err := w.WriteString(item + "\n"); err != nil {
			_ = f.Close()
			return errors.Join(ErrWriteLines, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Join(ErrWriteLines, err)
	}

	if err := f.Close(); err != nil {
		return errors.Join(ErrWriteLines, err)
	}

	return nil
}
