package t212

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Config carries everything the engine needs to run. The durations encode
// the upstream's documented behavior and are not normally user-tuned; the
// credentials and data directory are.
type Config struct {
	DataDir   string
	BaseURL   string
	Currency  string
	APIKey    string
	APISecret string

	// CacheTTL is how long a positions snapshot is served without refetching.
	CacheTTL time.Duration
	// MinRefreshGap is the hard floor between upstream calls, enforced even
	// for manual refreshes.
	MinRefreshGap time.Duration

	PositionsTimeout time.Duration
	CashTimeout      time.Duration
}

// DefaultConfig returns the standard configuration, keyed off the given data
// directory. Credentials are empty and must come from the settings file or
// the environment.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		BaseURL:          "https://live.trading212.com/api/v0",
		Currency:         "GBP",
		CacheTTL:         5 * time.Minute,
		MinRefreshGap:    time.Minute,
		PositionsTimeout: 12 * time.Second,
		CashTimeout:      8 * time.Second,
	}
}

// settings is the user-editable part of the configuration, persisted as
// settings.json in the data directory.
type settings struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Currency  string `json:"currency,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// LoadConfig builds a config from defaults, the settings file in dataDir,
// and the T212_API_KEY / T212_API_SECRET environment variables, in that
// order of increasing precedence. A missing settings file is fine; a
// malformed one is not.
func LoadConfig(dataDir string) (Config, error) {
	cfg := DefaultConfig(dataDir)

	path := filepath.Join(dataDir, settingsFile)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults plus environment only
	case err != nil:
		return Config{}, &PersistenceError{Path: path, Err: err}
	default:
		var s settings
		if err := json.Unmarshal(raw, &s); err != nil {
			return Config{}, &PersistenceError{Path: path, Err: err}
		}
		cfg.APIKey = s.APIKey
		cfg.APISecret = s.APISecret
		if s.Currency != "" {
			cfg.Currency = s.Currency
		}
		if s.BaseURL != "" {
			cfg.BaseURL = s.BaseURL
		}
	}

	if v := os.Getenv("T212_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("T212_API_SECRET"); v != "" {
		cfg.APISecret = v
	}
	return cfg, nil
}

// HasCredentials reports whether both API credentials are set.
func (c Config) HasCredentials() bool { return c.APIKey != "" && c.APISecret != "" }

// Validate checks the parts of the config that would otherwise fail deep
// inside a request.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("empty base URL")
	}
	if c.Currency == "" {
		return fmt.Errorf("empty account currency")
	}
	if c.MinRefreshGap <= 0 || c.CacheTTL <= 0 {
		return fmt.Errorf("refresh intervals must be positive")
	}
	return nil
}
