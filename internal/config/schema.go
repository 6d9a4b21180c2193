package config

import "time"

// Config holds olshelf configuration.
// Stored at: ~/.olshelf/config.yaml
type Config struct {
	API  APIConfig  `mapstructure:"api" yaml:"api"`
	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`
}

// APIConfig configures the remote shelf service client.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Token is the bearer session token (supports ${ENV_VAR} syntax).
	Token          string `mapstructure:"token" yaml:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	PageSize       int    `mapstructure:"page_size" yaml:"page_size"`
	RetryAttempts  uint   `mapstructure:"retry_attempts" yaml:"retry_attempts"`
}

// SyncConfig tunes the engine.
type SyncConfig struct {
	// StalenessMinutes bounds how old a shelf may be before a
	// refresh-if-stale request actually refetches it.
	StalenessMinutes int `mapstructure:"staleness_minutes" yaml:"staleness_minutes"`
	// DebounceMillis is the refresh scheduler's drain interval.
	DebounceMillis int `mapstructure:"debounce_millis" yaml:"debounce_millis"`
	// LoginRetryDelayMillis and LoginRetryAttempts shape the retry allowed
	// on a forced refresh right after login. Empirical values, kept
	// configurable rather than hard-coded.
	LoginRetryDelayMillis int  `mapstructure:"login_retry_delay_millis" yaml:"login_retry_delay_millis"`
	LoginRetryAttempts    uint `mapstructure:"login_retry_attempts" yaml:"login_retry_attempts"`
	// RedirectScan toggles the background redirect repair pass.
	RedirectScan bool `mapstructure:"redirect_scan" yaml:"redirect_scan"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://openlibrary.org/api/reader",
			Token:          "${OLSHELF_TOKEN}",
			TimeoutSeconds: 30,
			PageSize:       100,
			RetryAttempts:  3,
		},
		Sync: SyncConfig{
			StalenessMinutes:      5,
			DebounceMillis:        200,
			LoginRetryDelayMillis: 1000,
			LoginRetryAttempts:    1,
			RedirectScan:          true,
		},
	}
}

// StalenessThreshold returns the staleness bound as a duration.
func (c SyncConfig) StalenessThreshold() time.Duration {
	return time.Duration(c.StalenessMinutes) * time.Minute
}

// Debounce returns the scheduler drain interval as a duration.
func (c SyncConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// LoginRetryDelay returns the post-login retry delay as a duration.
func (c SyncConfig) LoginRetryDelay() time.Duration {
	return time.Duration(c.LoginRetryDelayMillis) * time.Millisecond
}
