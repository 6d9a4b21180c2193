package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadingSettings are per-book visual adjustments made in the reading
// surface. They are keyed by work and survive shelf refreshes, which is why
// stale ones need an explicit cleanup pass.
type ReadingSettings struct {
	FontScale  float64 `yaml:"font_scale"`
	Brightness float64 `yaml:"brightness"`
	Theme      string  `yaml:"theme"`
}

// SaveSettings writes the reading settings for a work.
func (s *Store) SaveSettings(workID string, settings ReadingSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(filepath.Join(settingsDirName, settingsFileName(workID)), settings)
}

// LoadSettings reads the reading settings for a work; ok is false when none
// were saved.
func (s *Store) LoadSettings(workID string) (ReadingSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var settings ReadingSettings
	ok, err := s.readYAML(filepath.Join(settingsDirName, settingsFileName(workID)), &settings)
	return settings, ok, err
}

// CleanOrphanSettings removes settings files whose work is not in keep and
// returns how many were removed.
func (s *Store) CleanOrphanSettings(keep map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, settingsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read settings directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, settingsFileExt) {
			continue
		}
		workID := strings.TrimSuffix(name, settingsFileExt)
		if _, ok := keep[workID]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
