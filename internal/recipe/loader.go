// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package recipe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/spf13/afero"
)

// Extension is the file extension of recipe files.
const Extension = ".sh"

var (
	// ErrNotFound is returned when no search path directory holds the recipe.
	ErrNotFound = errors.New("recipe not found")
	// ErrNoSearchPath is returned when a loader has no directories to search.
	ErrNoSearchPath = errors.New("no recipe search path configured")
)

// Loader looks up a recipe by basename.
type Loader interface {
	Load(ctx context.Context, basename string) (*Recipe, error)
}

// SearchPathLoader finds recipes in an ordered list of directories, the first match wins.
type SearchPathLoader struct {
	Fs          afero.Fs
	Paths       []string
	Terminators []string
}

var _ Loader = (*SearchPathLoader)(nil)

// NewSearchPathLoader creates a loader from a platform path list (colon separated on unix,
// semicolon separated on windows).
func NewSearchPathLoader(fs afero.Fs, searchPath string, terminators []string) *SearchPathLoader {
	paths := slices.DeleteFunc(filepath.SplitList(searchPath), func(s string) bool { return s == "" })

	if terminators == nil {
		terminators = DefaultTerminators
	}

	return &SearchPathLoader{
		Fs:          fs,
		Paths:       paths,
		Terminators: terminators,
	}
}

// Find returns the path of the recipe file for basename.
func (l *SearchPathLoader) Find(basename string) (string, error) {
	if len(l.Paths) == 0 {
		return "", ErrNoSearchPath
	}

	for _, dir := range l.Paths {
		p := filepath.Join(dir, basename+Extension)

		fi, err := l.Fs.Stat(p)
		if err == nil && !fi.IsDir() {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, basename)
}

// Load finds and parses the recipe for basename.
func (l *SearchPathLoader) Load(ctx context.Context, basename string) (*Recipe, error) {
	p, err := l.Find(basename)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "loading recipe", "basename", basename, "path", p)

	f, err := l.Fs.Open(p)
	if err != nil {
		return nil, errors.Join(ErrParseRecipe, err)
	}
	defer f.Close() //nolint:errcheck

	r, err := Parse(f, basename, l.Terminators)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, p)
	}

	r.Path = p

	return r, nil
}
