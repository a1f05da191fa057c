// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package build

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
)

// ErrFeedRecipe is returned when the recipe could not be streamed to the shell.
var ErrFeedRecipe = errors.New("could not feed recipe to shell")

type feedState int

const (
	feedSkipping feedState = iota
	feedForwarding
)

// feeder decides which recipe lines reach the shell.
//
// Leading blank and comment lines are dropped. The first substantive line starts forwarding.
// Until the first line that is not an export has been seen, a comment line switches back to
// skipping, which elides banner comments between metadata exports. After that every line is
// forwarded.
type feeder struct {
	state          feedState
	sawRealCommand bool
}

// forward reports whether a line of the given kind is sent to the shell.
func (f *feeder) forward(kind recipe.LineKind) bool {
	if f.sawRealCommand {
		return true
	}

	switch f.state {
	case feedSkipping:
		if !kind.Substantive() {
			return false
		}

		f.state = feedForwarding
	case feedForwarding:
		if kind == recipe.LineComment {
			f.state = feedSkipping
			return false
		}
	}

	if kind == recipe.LineCommand {
		f.sawRealCommand = true
	}

	return true
}

// feed streams the recipe read from r to the shell's stdin w. It changes into workDir first
// when one is given, and always ends with `exit $?`. Streaming stops at end of input, at a
// terminator line or when ctx is done.
func feed(ctx context.Context, r io.Reader, w io.Writer, terminators []string, workDir string) error {
	if workDir != "" {
		if _, err := fmt.Fprintf(w, "cd %s || exit 1\n", shellQuote(workDir)); err != nil {
			return errors.Join(ErrFeedRecipe, err)
		}
	}

	var (
		f       feeder
		br      = bufio.NewReader(r)
		readErr error
	)

	for ctx.Err() == nil {
		line, err := br.ReadString('\n')
		if line != "" {
			text := strings.TrimRight(line, "\r\n")
			kind := recipe.Classify(text, terminators)

			if kind == recipe.LineTerminator {
				ctxlog.Debug(ctx, "recipe terminator reached", "line", text)
				break
			}

			if f.forward(kind) {
				if _, werr := io.WriteString(w, text+"\n"); werr != nil {
					return errors.Join(ErrFeedRecipe, werr)
				}
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			readErr = errors.Join(ErrFeedRecipe, err)
			break
		}
	}

	if _, err := io.WriteString(w, "exit $?\n"); err != nil {
		return errors.Join(ErrFeedRecipe, readErr, err)
	}

	return readErr
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
