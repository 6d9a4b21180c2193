// Package cache persists shelf snapshots, per-book reading settings and the
// selected-list preference under the app home directory. Everything here is
// an optimization: callers treat failures as log-and-continue, never as a
// reason to fail a sync operation.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

const (
	shelvesFileName  = "shelves.yaml"
	listsFileName    = "lists.yaml"
	prefsFileName    = "prefs.yaml"
	settingsDirName  = "settings"
	settingsFileExt  = ".yaml"
	shelvesVersion   = 1
	settingsFileMode = 0o644
)

// Store is a file-backed cache rooted at one directory.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, settingsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// shelvesFile versions the snapshot so a format change invalidates old
// caches instead of half-parsing them.
type shelvesFile struct {
	Version int           `yaml:"version"`
	Shelves []types.Shelf `yaml:"shelves"`
}

// SaveShelves writes the shelf snapshot.
func (s *Store) SaveShelves(shelves []types.Shelf) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(shelvesFileName, shelvesFile{Version: shelvesVersion, Shelves: shelves})
}

// LoadShelves reads the shelf snapshot. A missing or stale-format cache
// returns (nil, nil).
func (s *Store) LoadShelves() ([]types.Shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f shelvesFile
	ok, err := s.readYAML(shelvesFileName, &f)
	if err != nil || !ok {
		return nil, err
	}
	if f.Version != shelvesVersion {
		return nil, nil
	}
	return f.Shelves, nil
}

type listsFile struct {
	Lists []types.BookList `yaml:"lists"`
}

// SaveLists writes the book list snapshot.
func (s *Store) SaveLists(lists []types.BookList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(listsFileName, listsFile{Lists: lists})
}

// LoadLists reads the book list snapshot; missing cache returns (nil, nil).
func (s *Store) LoadLists() ([]types.BookList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f listsFile
	ok, err := s.readYAML(listsFileName, &f)
	if err != nil || !ok {
		return nil, err
	}
	return f.Lists, nil
}

// Clear removes the shelf and list snapshots and all reading settings.
// The preference file survives a cache clear.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, name := range []string{shelvesFileName, listsFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(s.dir, settingsDirName)); err != nil {
		errs = append(errs, err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, settingsDirName), 0o755); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// writeYAML marshals v and writes it via tmp-file-then-rename so readers
// never observe a torn file.
func (s *Store) writeYAML(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	dest := filepath.Join(s.dir, name)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, settingsFileMode); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// readYAML reads and unmarshals name into v, reporting whether the file
// existed.
func (s *Store) readYAML(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}

// settingsFileName escapes a work ID into a safe file name.
func settingsFileName(workID string) string {
	return strings.ReplaceAll(workID, string(os.PathSeparator), "_") + settingsFileExt
}
