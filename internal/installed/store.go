// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package installed

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var (
	// ErrReadDatabase is returned when the installed database exists but cannot be read.
	ErrReadDatabase = errors.New("could not read installed database")
	// ErrWriteDatabase is returned when the installed database cannot be saved.
	ErrWriteDatabase = errors.New("could not write installed database")
)

// Store reports installed packages.
type Store interface {
	IsInstalled(basename string) bool
	InstalledVersion(basename string) (string, bool)
}

// Recorder is implemented by stores that can remember a new installation.
type Recorder interface {
	Record(basename, version string) error
}

// Static is a read-only Store mapping basenames to versions.
type Static map[string]string

var _ Store = Static(nil)

// IsInstalled implements Store.
func (s Static) IsInstalled(basename string) bool {
	_, ok := s[basename]
	return ok
}

// InstalledVersion implements Store.
func (s Static) InstalledVersion(basename string) (string, bool) {
	v, ok := s[basename]
	return v, ok
}

// Entry is a database record.
type Entry struct {
	Version     string    `yaml:"version"`
	InstalledAt time.Time `yaml:"installedAt"`
}

type database struct {
	Packages map[string]Entry `yaml:"packages"`
}

// FileStore is a Store backed by a YAML file. It is safe for concurrent use.
type FileStore struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu sync.RWMutex
	db database
}

var (
	_ Store    = (*FileStore)(nil)
	_ Recorder = (*FileStore)(nil)
)

// Open loads the database at path. A missing file is an empty database.
func Open(fs afero.Fs, path string) (*FileStore, error) {
	s := &FileStore{
		fs:   fs,
		path: path,
		now:  time.Now,
		db:   database{Packages: make(map[string]Entry)},
	}

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, errors.Join(ErrReadDatabase, err)
	}

	if err := yaml.Unmarshal(data, &s.db); err != nil {
		return nil, errors.Join(ErrReadDatabase, fmt.Errorf("%s: %w", path, err))
	}

	if s.db.Packages == nil {
		s.db.Packages = make(map[string]Entry)
	}

	return s, nil
}

// IsInstalled implements Store.
func (s *FileStore) IsInstalled(basename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.db.Packages[basename]

	return ok
}

// InstalledVersion implements Store.
func (s *FileStore) InstalledVersion(basename string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.db.Packages[basename]

	return e.Version, ok
}

// Packages returns the installed basenames in sorted order.
func (s *FileStore) Packages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.db.Packages))
}

// Record stores basename at version and saves the database.
func (s *FileStore) Record(basename, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.Packages[basename] = Entry{
		Version:     version,
		InstalledAt: s.now().UTC(),
	}

	return s.save()
}

// save writes the database through a temporary file. Must be called with the write lock held.
func (s *FileStore) save() error {
	data, err := yaml.Marshal(s.db)
	if err != nil {
		return errors.Join(ErrWriteDatabase, err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Join(ErrWriteDatabase, err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return errors.Join(ErrWriteDatabase, err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return errors.Join(ErrWriteDatabase, err)
	}

	return nil
}
