// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package recipe

import (
	"context"
	"errors"
	"os"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
)

// ErrFetchRepository is returned when a recipe repository cannot be fetched.
var ErrFetchRepository = errors.New("failed to fetch recipe repository")

// FetchRepository downloads a recipe repository into dst and returns the directory holding it.
// src uses go-getter syntax, so git, http archives, S3 and local paths are all accepted.
// See https://github.com/hashicorp/go-getter.
func FetchRepository(ctx context.Context, src, dst string) (string, error) {
	if src == "" || dst == "" {
		return "", errors.Join(ErrFetchRepository, errors.New("source and destination are required"))
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Join(ErrFetchRepository, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     src,
		Dst:     dst,
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	ctxlog.Info(ctx, "fetching recipe repository", "src", src, "dst", dst)

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", errors.Join(ErrFetchRepository, err)
	}

	return res.Dst, nil
}
