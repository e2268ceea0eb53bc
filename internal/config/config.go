package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the location of the config file
const EnvConfigPath = "PHOTOLAB_CONFIG"

// Config holds all user-configurable settings loaded from config.yaml
type Config struct {
	Import   ImportConfig   `yaml:"import"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Imaging  ImagingConfig  `yaml:"imaging"`
	Hotkeys  HotkeysConfig  `yaml:"hotkeys"`
}

// ImportConfig holds import batch settings
type ImportConfig struct {
	ThumbnailMaxDim int  `yaml:"thumbnail_max_dim"`
	KeepPartial     bool `yaml:"keep_partial"` // keep successful thumbnails when some fail
	Recursive       bool `yaml:"recursive"`    // descend into picked directories
}

// BehaviorConfig holds behavior settings
type BehaviorConfig struct {
	ConfirmDelete bool `yaml:"confirm_delete"`
}

// ImagingConfig holds encoder settings
type ImagingConfig struct {
	ThumbnailQuality int `yaml:"thumbnail_quality"` // JPEG quality, 1-100
}

// HotkeysConfig holds the key bindings of the viewer
type HotkeysConfig struct {
	Delete     string `yaml:"delete"`
	Previous   string `yaml:"previous"`
	Next       string `yaml:"next"`
	BackToGrid string `yaml:"back_to_grid"`
	Export     string `yaml:"export"`
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager for the default path
func NewManager() *Manager {
	return NewManagerAt(ConfigPath())
}

// NewManagerAt creates a configuration manager bound to path
func NewManagerAt(path string) *Manager {
	return &Manager{
		config: DefaultConfig(),
		path:   path,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			ThumbnailMaxDim: 256,
			KeepPartial:     false,
			Recursive:       true,
		},
		Behavior: BehaviorConfig{
			ConfirmDelete: true,
		},
		Imaging: ImagingConfig{
			ThumbnailQuality: 80,
		},
		Hotkeys: DefaultHotkeys(),
	}
}

// ConfigPath returns the config file path: ~/.config/photolab/config.yaml
// PHOTOLAB_CONFIG takes precedence when set
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "photolab", "config.yaml")
}

// Path returns the file this manager reads and writes
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Decode over the defaults so keys missing from the file keep their default value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Config: YAML parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}
	cfg.normalize()

	debug.Log(debug.CONFIG, "loaded from %s: %+v", m.path, *cfg)
	m.config = cfg
	return nil
}

// normalize replaces out-of-range values with their defaults
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Import.ThumbnailMaxDim <= 0 {
		c.Import.ThumbnailMaxDim = def.Import.ThumbnailMaxDim
	}
	if c.Imaging.ThumbnailQuality < 1 || c.Imaging.ThumbnailQuality > 100 {
		c.Imaging.ThumbnailQuality = def.Imaging.ThumbnailQuality
	}
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetKeepPartial updates the partial import policy
func (m *Manager) SetKeepPartial(keep bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Import.KeepPartial = keep
	return m.saveUnlocked()
}

// SetConfirmDelete updates the delete confirmation setting
func (m *Manager) SetConfirmDelete(confirm bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Behavior.ConfirmDelete = confirm
	return m.saveUnlocked()
}

// GenerateConfig backs up the config at path and writes a fresh default config
// Returns the backup path if a backup was created, or empty string if no existing config
func GenerateConfig(path string) (backupPath string, err error) {
	if _, err := os.Stat(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".yaml")

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}
