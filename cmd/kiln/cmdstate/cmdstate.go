// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate holds the flags and setup shared by the kiln commands: loading the
// configuration, fetching the recipe repository and opening the installed database.
package cmdstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/kiln/internal/config"
	"github.com/matt-FFFFFF/kiln/internal/ctxlog"
	"github.com/matt-FFFFFF/kiln/internal/installed"
	"github.com/matt-FFFFFF/kiln/internal/orderedset"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
	"github.com/urfave/cli/v3"
)

const (
	ConfigFlag     = "config"
	SearchPathFlag = "search-path"
	BuildRootFlag  = "build-root"
	LogDirFlag     = "log-dir"
	KeepGoingFlag  = "keep-going"
	LogLevelFlag   = "log-level"
	PackagesFlag   = "packages-file"

	// ExitInterrupted is the process exit code after a signal stopped the run.
	ExitInterrupted = 130
)

var (
	// ErrGetConfigFile is returned when a remote configuration file cannot be fetched.
	ErrGetConfigFile = errors.New("failed to get config file")
	// ErrNoPackages is returned when no package is named.
	ErrNoPackages = errors.New("no packages specified")
)

// Flags returns new instances of the flags every command accepts.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ConfigFlag,
			Aliases: []string{"c"},
			Usage: "Configuration file. Defaults to " + config.DefaultFileName + " in the working directory. " +
				"Remote files use Hashicorp's go-getter syntax.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     SearchPathFlag,
			Aliases:  []string{"s"},
			Usage:    "Directories holding recipes, separated by the platform path list separator",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      BuildRootFlag,
			Usage:     "Create a disposable working directory per build below this directory",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      LogDirFlag,
			Usage:     "Write a plain text log per build to this directory",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      PackagesFlag,
			Aliases:   []string{"p"},
			Usage:     "Read package names from this file, one per line, in addition to the arguments",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:        KeepGoingFlag,
			Aliases:     []string{"k"},
			Usage:       "Keep building unrelated packages after a failure",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

// LogLevel returns the flag that sets the log level.
func LogLevel() cli.Flag {
	return &cli.StringFlag{
		Name:    LogLevelFlag,
		Usage:   "Log level: debug, info, warn or error. Overrides " + ctxlog.LogLevelEnvVar,
		Sources: cli.EnvVars(ctxlog.LogLevelEnvVar),
	}
}

// Before applies the log level flag.
func Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet(LogLevelFlag) {
		ctxlog.LevelVar.Set(ctxlog.ParseLevel(cmd.String(LogLevelFlag)))
	}

	return ctx, nil
}

// PackageNames returns the packages named on the command line followed by those in the packages
// file, without duplicates.
func PackageNames(cmd *cli.Command) ([]string, error) {
	names := orderedset.NewOrdered(cmd.Args().Slice()...)

	if path := cmd.String(PackagesFlag); path != "" {
		fromFile, err := orderedset.ReadLines(config.FsFactory(), path)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		for name := range fromFile.All() {
			names.Insert(name)
		}
	}

	if names.Len() == 0 {
		return nil, ErrNoPackages
	}

	return names.Values(), nil
}

// LoadConfig loads the configuration named by the config flag and applies the other flags on
// top of it.
func LoadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	src := cmd.String(ConfigFlag)

	var (
		cfg *config.Config
		err error
	)

	if isRemote(src) {
		var data []byte

		data, err = getURL(ctx, src)
		if err != nil {
			return nil, err
		}

		cfg, err = config.Parse(data, src)
	} else {
		cfg, err = config.Load(src)
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if cmd.IsSet(SearchPathFlag) {
		cfg.SearchPath = cmd.String(SearchPathFlag)
	}

	if cmd.IsSet(BuildRootFlag) {
		cfg.BuildRoot = cmd.String(BuildRootFlag)
	}

	if cmd.IsSet(LogDirFlag) {
		cfg.LogDir = cmd.String(LogDirFlag)
	}

	if cmd.Bool(KeepGoingFlag) {
		cfg.KeepGoing = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	ctxlog.Debug(ctx, "configuration loaded", "source", src, "searchPath", cfg.SearchPath)

	return cfg, nil
}

// Loader returns a recipe loader for cfg. A configured repository is fetched first and searched
// before the rest of the search path.
func Loader(ctx context.Context, cfg *config.Config) (*recipe.SearchPathLoader, error) {
	searchPath := cfg.SearchPath

	if cfg.Repository != "" {
		dir, err := recipe.FetchRepository(ctx, cfg.Repository, cfg.RepositoryCache)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		searchPath = cfg.SearchPathWith(dir)
	}

	return recipe.NewSearchPathLoader(config.FsFactory(), searchPath, cfg.Terminators), nil
}

// InstalledStore opens the installed database, or returns nil when none is configured.
func InstalledStore(cfg *config.Config) (installed.Store, error) {
	if cfg.InstalledDB == "" {
		return nil, nil //nolint:nilnil
	}

	s, err := installed.Open(config.FsFactory(), cfg.InstalledDB)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return s, nil
}

func isRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// getURL retrieves the content from the specified URL using Hashicorp's go-getter.
// It removes the temporary download directory after reading the file.
func getURL(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetConfigFile
	}

	newURL, fileName := splitFileNameFromGetterURL(url)
	if newURL == "" || fileName == "" {
		return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetConfigFile, url)
	}

	tmpDir, err := os.MkdirTemp("", "kiln-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     newURL,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	return data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

// splitFileNameFromGetterURL splits a go-getter URL into the directory to download and the name
// of the file inside it. A ref query parameter stays on the directory URL.
// See https://github.com/hashicorp/go-getter/issues/98.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if path, query, ok := strings.Cut(last, goGetterRefSeparator); ok {
		ref = query
		last = path
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	dir := filepath.Dir(last)

	if dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
