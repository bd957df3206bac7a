package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	logger = logging.GetLogger().WithPrefix("config")
)

// Manager handles loading and saving the machine configuration
type Manager struct {
	configPath  string
	backupDir   string
	backupCount int
	mu          sync.RWMutex
}

// NewManager creates a new config manager for the given file path.
// Relative paths are resolved against the current working directory.
func NewManager(configPath string) (*Manager, error) {
	logger.Debug("Creating new config manager with path: %s", configPath)

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", configPath, err)
	}
	logger.Debug("Resolved config path: %s", absPath)

	return &Manager{
		configPath:  absPath,
		backupDir:   filepath.Join(filepath.Dir(absPath), ".darkoos-backups"),
		backupCount: 5,
	}, nil
}

// Path returns the absolute config file path
func (m *Manager) Path() string {
	return m.configPath
}

// Exists reports whether the config file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// Load reads and validates the configuration. A missing file yields
// ErrNotFound.
func (m *Manager) Load() (*Config, error) {
	logger.Debug("Loading config from: %s", m.configPath)
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m.configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalid, m.configPath, err)
	}
	for _, key := range meta.Undecoded() {
		logger.Warn("Ignoring unknown config key %q", key.String())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Config loaded for user %q", cfg.User)
	return &cfg, nil
}

// Save writes the configuration to disk.
// It creates a backup of the previous file before overwriting it.
func (m *Manager) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Debug("Saving config to: %s", m.configPath)

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create backup before saving
	if backupErr := m.createBackup(); backupErr != nil {
		logger.Warn("Failed to create backup: %v", backupErr)
		// Continue with save even if backup fails
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Trace("Writing %d bytes of config data", buf.Len())
	if err := os.WriteFile(m.configPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.Info("Config saved")
	return nil
}

// DiskRoot returns the host directory of the virtual disk. Relative disk
// paths are resolved against the config file's directory.
func (m *Manager) DiskRoot(cfg *Config) string {
	if filepath.IsAbs(cfg.DiskPath) {
		return cfg.DiskPath
	}
	return filepath.Join(filepath.Dir(m.configPath), cfg.DiskPath)
}

// DiskOptions converts the capacity settings for the virtual disk.
// Relative system file paths are resolved like DiskRoot.
func (m *Manager) DiskOptions(cfg *Config) disk.Options {
	files := make([]string, 0, len(cfg.SystemFiles))
	for _, f := range cfg.SystemFiles {
		if !filepath.IsAbs(f) {
			f = filepath.Join(filepath.Dir(m.configPath), f)
		}
		files = append(files, f)
	}
	return disk.Options{
		CapacityBytes: cfg.CapacityBytes(),
		OverheadBytes: cfg.ReservedOverheadBytes,
		SystemFiles:   files,
	}
}

// createBackup creates a timestamped backup of the current config file
func (m *Manager) createBackup() error {
	// Skip if config file doesn't exist yet
	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory %s: %w", m.backupDir, err)
	}

	timestamp := time.Now().Format("20060102-150405.000000000")
	backupPath := filepath.Join(m.backupDir, fmt.Sprintf("config-%s.toml", timestamp))

	logger.Debug("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return m.cleanupOldBackups()
}

// cleanupOldBackups removes old backup files, keeping only the most recent ones
func (m *Manager) cleanupOldBackups() error {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return err
	}

	// Backup names embed the timestamp, so name order is age order.
	backups := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".toml" {
			backups = append(backups, entry.Name())
		}
	}

	// Newest first
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	for i := m.backupCount; i < len(backups); i++ {
		path := filepath.Join(m.backupDir, backups[i])
		logger.Debug("Removing old backup: %s", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", path, err)
		}
	}

	return nil
}

// Backups returns the backup file paths, newest first.
func (m *Manager) Backups() ([]string, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".toml" {
			paths = append(paths, filepath.Join(m.backupDir, entry.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}
