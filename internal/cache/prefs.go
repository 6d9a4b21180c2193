package cache

// prefsFile holds the small set of persisted UI preferences. Only the
// selected list survives sessions today.
type prefsFile struct {
	SelectedListURL string `yaml:"selected_list_url"`
}

// SelectedListURL returns the persisted list selection, empty when none.
func (s *Store) SelectedListURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f prefsFile
	if _, err := s.readYAML(prefsFileName, &f); err != nil {
		return "", err
	}
	return f.SelectedListURL, nil
}

// SetSelectedListURL persists the list selection. An empty URL clears it.
func (s *Store) SetSelectedListURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(prefsFileName, prefsFile{SelectedListURL: url})
}
