// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package recipe

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Metadata keys understood in the leading export block.
const (
	KeyName                 = "NAME"
	KeyVersion              = "VERSION"
	KeyDescription          = "DESCRIPTION"
	KeyURL                  = "URL"
	KeyDownloadURL          = "DOWNLOADURL"
	KeyLicenseFile          = "LICENSEFILE"
	KeyDependencies         = "DEPENDENCIES"
	KeyDependenciesAlt      = "DEPENDANCIES"
	KeyOptionalDependencies = "OPTIONALDEPENDENCIES"
	KeyBuildDependencies    = "BUILDDEPENDENCIES"
	KeyNoBuild              = "NOBUILD"
)

// ErrParseRecipe is returned when a recipe cannot be read.
var ErrParseRecipe = errors.New("failed to parse recipe")

// Recipe is the metadata of a single package recipe.
type Recipe struct {
	Basename             string            // Unique package identifier, the file name without extension
	Path                 string            // Location of the recipe file
	Name                 string            // NAME, defaults to the basename
	Version              string            // VERSION
	Description          string            // DESCRIPTION
	URL                  string            // URL
	DownloadURL          string            // DOWNLOADURL
	LicenseFile          string            // LICENSEFILE
	Dependencies         []string          // DEPENDENCIES (or the DEPENDANCIES spelling)
	BuildDependencies    []string          // BUILDDEPENDENCIES
	OptionalDependencies []string          // OPTIONALDEPENDENCIES
	Buildable            bool              // Whether the recipe has build commands and is not marked NOBUILD
	Meta                 map[string]string // Every export of the metadata block
}

// Parse reads recipe metadata from r. Only the leading block is inspected for exports,
// the first substantive non-export line ends it.
func Parse(r io.Reader, basename string, terminators []string) (*Recipe, error) {
	rcp := &Recipe{
		Basename: basename,
		Meta:     make(map[string]string),
	}

	br := bufio.NewReader(r)
	inHeader := true

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Join(ErrParseRecipe, err)
		}

		if line != "" {
			kind := Classify(line, terminators)
			if kind == LineTerminator {
				break
			}

			switch {
			case kind == LineExport && inHeader:
				k, v, _ := parseExport(strings.TrimSpace(line))
				rcp.Meta[k] = v
			case kind == LineCommand:
				inHeader = false
				rcp.Buildable = true
			}
		}

		if err != nil {
			break
		}
	}

	rcp.applyMeta()

	return rcp, nil
}

func (r *Recipe) applyMeta() {
	r.Name = r.Meta[KeyName]
	if r.Name == "" {
		r.Name = r.Basename
	}

	r.Version = r.Meta[KeyVersion]
	r.Description = r.Meta[KeyDescription]
	r.URL = r.Meta[KeyURL]
	r.DownloadURL = r.Meta[KeyDownloadURL]
	r.LicenseFile = r.Meta[KeyLicenseFile]

	deps := r.Meta[KeyDependencies]
	if deps == "" {
		deps = r.Meta[KeyDependenciesAlt]
	}

	r.Dependencies = splitList(deps)
	r.BuildDependencies = splitList(r.Meta[KeyBuildDependencies])
	r.OptionalDependencies = splitList(r.Meta[KeyOptionalDependencies])

	switch strings.ToLower(r.Meta[KeyNoBuild]) {
	case "1", "yes", "true":
		r.Buildable = false
	}
}

func splitList(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
