// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zlibRecipe = `#!/bin/sh
# zlib recipe
export NAME=zlib
export VERSION="1.3.1"
# banner in between
export DEPENDANCIES=
export BUILDDEPENDENCIES='cmake, ninja'
export OPTIONALDEPENDENCIES=pkgconf,libtool
export DESCRIPTION="Compression library"

./configure --prefix=$PREFIX
export CFLAGS=-O3
make install
kiln-package
echo unreachable
`

func TestParse_Metadata(t *testing.T) {
	r, err := Parse(strings.NewReader(zlibRecipe), "zlib", DefaultTerminators)
	require.NoError(t, err)

	assert.Equal(t, "zlib", r.Name)
	assert.Equal(t, "1.3.1", r.Version)
	assert.Equal(t, "Compression library", r.Description)
	assert.Empty(t, r.Dependencies)
	assert.Equal(t, []string{"cmake", "ninja"}, r.BuildDependencies)
	assert.Equal(t, []string{"pkgconf", "libtool"}, r.OptionalDependencies)
	assert.True(t, r.Buildable)
	assert.NotContains(t, r.Meta, "CFLAGS", "exports after the first command are not metadata")
}

func TestParse_DependenciesSpelling(t *testing.T) {
	r, err := Parse(strings.NewReader("export DEPENDENCIES=a,b\nmake\n"), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Dependencies)

	r, err = Parse(strings.NewReader("export DEPENDANCIES=c\nmake\n"), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, r.Dependencies)
}

func TestParse_NotBuildable(t *testing.T) {
	t.Run("metadata only", func(t *testing.T) {
		r, err := Parse(strings.NewReader("# header\nexport NAME=meta\n"), "meta", nil)
		require.NoError(t, err)
		assert.False(t, r.Buildable)
		assert.Equal(t, "meta", r.Name)
	})

	t.Run("nobuild flag", func(t *testing.T) {
		r, err := Parse(strings.NewReader("export NOBUILD=1\nmake\n"), "nb", nil)
		require.NoError(t, err)
		assert.False(t, r.Buildable)
	})

	t.Run("commands after terminator only", func(t *testing.T) {
		r, err := Parse(strings.NewReader("export NAME=t\nkiln-package\nmake\n"), "t", DefaultTerminators)
		require.NoError(t, err)
		assert.False(t, r.Buildable)
	})
}

func TestParse_NoTrailingNewline(t *testing.T) {
	r, err := Parse(strings.NewReader("export VERSION=2\nmake"), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", r.Version)
	assert.True(t, r.Buildable)
	assert.Equal(t, "x", r.Name)
}

func TestClassify(t *testing.T) {
	terms := []string{"kiln-package"}

	cases := map[string]LineKind{
		"":                            LineBlank,
		"   \t":                       LineBlank,
		"# comment":                   LineComment,
		"   #indented":                LineComment,
		"export NAME=zlib":            LineExport,
		"export\tVERSION=1":           LineExport,
		"export PATH":                 LineCommand,
		"exporter --flag":             LineCommand,
		"make -j4":                    LineCommand,
		"kiln-package --all":          LineTerminator,
		"/usr/local/bin/kiln-package": LineTerminator,
	}

	for line, want := range cases {
		assert.Equal(t, want, Classify(line, terms), "line %q", line)
	}
}
