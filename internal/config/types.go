// Package config provides the machine configuration of the simulated OS.
package config

import (
	"errors"
	"fmt"
	"time"

	"darkoos/internal/disk"
)

var (
	// ErrNotFound indicates the config file does not exist
	ErrNotFound = errors.New("config file not found")

	// ErrInvalid indicates a config file with missing or bad values
	ErrInvalid = errors.New("invalid config")
)

// MaxDiskGB bounds disk_gb so the capacity in bytes fits an int64.
const MaxDiskGB = 1 << 20

// Config represents the machine configuration
type Config struct {
	// Account name shown on the desktop
	User string `toml:"user"`

	// Plain password, compared for exact equality. Ignored when
	// PasswordHash is set.
	Password string `toml:"password,omitempty"`

	// bcrypt hash of the password
	PasswordHash string `toml:"password_hash,omitempty"`

	// Display-only memory size
	RAMMB int `toml:"ram_mb"`

	// Virtual disk capacity
	DiskGB int `toml:"disk_gb"`

	// Host directory backing the virtual disk, relative to the config file
	DiskPath string `toml:"disk_path"`

	// Fixed amount reported as used by the system
	ReservedOverheadBytes int64 `toml:"reserved_overhead_bytes"`

	// Host files whose sizes count as system overhead when present
	SystemFiles []string `toml:"system_files,omitempty"`

	Browser BrowserConfig `toml:"browser"`
}

// BrowserConfig configures the web-page viewer
type BrowserConfig struct {
	Home           string `toml:"home"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Default returns a config with every optional value filled in.
func Default() *Config {
	return &Config{
		User:     "user",
		RAMMB:    4096,
		DiskGB:   5,
		DiskPath: "v_disk",
		Browser: BrowserConfig{
			Home:           "https://example.com",
			TimeoutSeconds: 10,
		},
	}
}

// applyDefaults fills optional values that were left empty.
func (c *Config) applyDefaults() {
	def := Default()
	if c.DiskPath == "" {
		c.DiskPath = def.DiskPath
	}
	if c.Browser.Home == "" {
		c.Browser.Home = def.Browser.Home
	}
	if c.Browser.TimeoutSeconds <= 0 {
		c.Browser.TimeoutSeconds = def.Browser.TimeoutSeconds
	}
}

// Validate checks that every required value is present and sane.
func (c *Config) Validate() error {
	switch {
	case c.User == "":
		return fmt.Errorf("%w: user is required", ErrInvalid)
	case c.Password == "" && c.PasswordHash == "":
		return fmt.Errorf("%w: password or password_hash is required", ErrInvalid)
	case c.RAMMB <= 0:
		return fmt.Errorf("%w: ram_mb must be positive", ErrInvalid)
	case c.DiskGB <= 0:
		return fmt.Errorf("%w: disk_gb must be positive", ErrInvalid)
	case c.DiskGB > MaxDiskGB:
		return fmt.Errorf("%w: disk_gb must be at most %d", ErrInvalid, MaxDiskGB)
	case c.ReservedOverheadBytes < 0:
		return fmt.Errorf("%w: reserved_overhead_bytes must not be negative", ErrInvalid)
	}
	return nil
}

// CapacityBytes returns the configured disk capacity in bytes.
func (c *Config) CapacityBytes() int64 {
	return int64(c.DiskGB) * disk.GiB
}

// BrowserTimeout returns the page fetch timeout.
func (c *Config) BrowserTimeout() time.Duration {
	return time.Duration(c.Browser.TimeoutSeconds) * time.Second
}
