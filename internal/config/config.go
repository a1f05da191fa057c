// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/kiln/internal/build"
	"github.com/matt-FFFFFF/kiln/internal/recipe"
	"github.com/spf13/afero"
)

// DefaultFileName is read from the working directory when no file is named.
const DefaultFileName = "kiln.yaml"

var (
	// ErrReadConfigFile is returned when the configuration file cannot be read.
	ErrReadConfigFile = errors.New("could not read configuration file")
	// ErrParseConfigFile is returned when the configuration file is not valid YAML.
	ErrParseConfigFile = errors.New("could not parse configuration file")
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("duration", validateDuration)
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Cleanup controls removal of build working directories.
type Cleanup struct {
	Retries  int    `yaml:"retries" validate:"gte=1"`
	Interval string `yaml:"interval" validate:"required,duration"`
}

// Config is the kiln configuration.
type Config struct {
	SearchPath      string            `yaml:"searchPath" validate:"required_without=Repository"`
	Repository      string            `yaml:"repository"`
	RepositoryCache string            `yaml:"repositoryCache" validate:"required_with=Repository"`
	Shell           []string          `yaml:"shell" validate:"min=1,dive,required"`
	Env             map[string]string `yaml:"env" validate:"dive,keys,required,excludesall==,endkeys"`
	BuildRoot       string            `yaml:"buildRoot"`
	LogDir          string            `yaml:"logDir"`
	Terminators     []string          `yaml:"terminators" validate:"dive,required"`
	InstalledDB     string            `yaml:"installedDB"`
	KeepGoing       bool              `yaml:"keepGoing"`
	Cleanup         Cleanup           `yaml:"cleanup"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SearchPath:  ".",
		Shell:       append([]string(nil), build.DefaultShell...),
		Env:         map[string]string{},
		Terminators: append([]string(nil), recipe.DefaultTerminators...),
		Cleanup: Cleanup{
			Retries:  build.DefaultCleanupRetries,
			Interval: build.DefaultCleanupInterval.String(),
		},
	}
}

// Load reads the configuration at path on top of Default and validates it.
// An empty path reads DefaultFileName when it exists and the defaults otherwise.
func Load(path string) (*Config, error) {
	fs := FsFactory()

	if path == "" {
		ok, err := afero.Exists(fs, DefaultFileName)
		if err != nil {
			return nil, errors.Join(ErrReadConfigFile, err)
		}

		if !ok {
			cfg := Default()
			return cfg, cfg.Validate()
		}

		path = DefaultFileName
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Join(ErrReadConfigFile, err)
	}

	return Parse(data, path)
}

// Parse decodes YAML data on top of Default and validates the result. name is used in errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Join(ErrParseConfigFile, fmt.Errorf("%s: %w", name, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return cfg, nil
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(ErrInvalidConfig, err)
	}

	var result error

	for _, fe := range fieldErrs {
		result = multierror.Append(result, fmt.Errorf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
	}

	return errors.Join(ErrInvalidConfig, result)
}

// CleanupInterval returns the parsed cleanup interval.
func (c *Config) CleanupInterval() time.Duration {
	d, err := time.ParseDuration(c.Cleanup.Interval)
	if err != nil {
		return build.DefaultCleanupInterval
	}

	return d
}

// SearchPathWith returns the search path with dir in front of it.
func (c *Config) SearchPathWith(dir string) string {
	if dir == "" {
		return c.SearchPath
	}

	if c.SearchPath == "" {
		return dir
	}

	return dir + string(os.PathListSeparator) + c.SearchPath
}
