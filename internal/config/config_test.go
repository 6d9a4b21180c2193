package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestDefaultConfig tests the shipped defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL == "" {
		t.Error("API.BaseURL is empty")
	}
	if cfg.API.PageSize != 100 {
		t.Errorf("API.PageSize = %d, want 100", cfg.API.PageSize)
	}
	if got := cfg.Sync.StalenessThreshold(); got != 5*time.Minute {
		t.Errorf("StalenessThreshold() = %v, want 5m", got)
	}
	if got := cfg.Sync.Debounce(); got != 200*time.Millisecond {
		t.Errorf("Debounce() = %v, want 200ms", got)
	}
	if got := cfg.Sync.LoginRetryDelay(); got != time.Second {
		t.Errorf("LoginRetryDelay() = %v, want 1s", got)
	}
	if cfg.Sync.LoginRetryAttempts != 1 {
		t.Errorf("LoginRetryAttempts = %d, want 1", cfg.Sync.LoginRetryAttempts)
	}
	if !cfg.Sync.RedirectScan {
		t.Error("RedirectScan = false, want true")
	}
}

// TestResolveEnvVars tests ${VAR} expansion.
func TestResolveEnvVars(t *testing.T) {
	t.Setenv("OLSHELF_TEST_TOKEN", "s3cret")

	tests := []struct {
		in   string
		want string
	}{
		{"${OLSHELF_TEST_TOKEN}", "s3cret"},
		{"prefix-${OLSHELF_TEST_TOKEN}", "prefix-s3cret"},
		{"plain-value", "plain-value"},
		{"${OLSHELF_TEST_UNSET}", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestWriteDefault tests that the written file parses back into the default
// configuration.
func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.API.BaseURL != want.API.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.API.BaseURL, want.API.BaseURL)
	}
	if cfg.Sync.DebounceMillis != want.Sync.DebounceMillis {
		t.Errorf("DebounceMillis = %d, want %d", cfg.Sync.DebounceMillis, want.Sync.DebounceMillis)
	}
}
