package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default endpoints and tunables used when the config file does not set them.
const (
	DefaultArchwebBaseURL = "https://archlinux.org"
	DefaultAURBaseURL     = "https://aur.archlinux.org"
	DefaultTimeoutSeconds = 10
	DefaultRetries        = 3
	DefaultCacheTTLMin    = 15
)

// Config represents the application configuration
type Config struct {
	Archweb ArchwebConfig `yaml:"archweb"`
	AUR     AURConfig     `yaml:"aur"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ArchwebConfig holds settings for the official package search API
type ArchwebConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AURConfig holds settings for the AUR RPC API
type AURConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HTTPConfig holds settings for outbound HTTP requests
type HTTPConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent,omitempty"`
}

// CacheConfig holds settings for the lookup result cache
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	Dir        string `yaml:"dir,omitempty"`
}

// DefaultConfig returns a config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Archweb: ArchwebConfig{BaseURL: DefaultArchwebBaseURL},
		AUR:     AURConfig{BaseURL: DefaultAURBaseURL},
		HTTP: HTTPConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			Retries:        DefaultRetries,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: DefaultCacheTTLMin,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/archpkg/config.yaml (XDG standard - priority)
// 2. ~/.archpkg/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "archpkg", "config.yaml"),
		filepath.Join(home, ".archpkg", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	// Return first existing config file
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// No config exists, return default (XDG) path for creation
	return paths[0], nil
}

// Load reads configuration from the first available config file
// Priority: ~/.config/archpkg/config.yaml > ~/.archpkg/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file is created with defaults; set but empty fields fall
// back to defaults so a partial config file stays valid.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero-valued fields with defaults
func (c *Config) applyDefaults() {
	if c.Archweb.BaseURL == "" {
		c.Archweb.BaseURL = DefaultArchwebBaseURL
	}
	if c.AUR.BaseURL == "" {
		c.AUR.BaseURL = DefaultAURBaseURL
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.HTTP.Retries <= 0 {
		c.HTTP.Retries = DefaultRetries
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = DefaultCacheTTLMin
	}
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Timeout returns the configured HTTP timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// CacheTTL returns the configured cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// CacheDir returns the configured cache directory, expanding a leading
// tilde. When unset it falls back to the XDG cache directory.
func (c *Config) CacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		return DefaultCacheDir()
	}
	if len(dir) > 0 && dir[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, dir[1:])
	}
	return dir, nil
}

// DefaultCacheDir returns the XDG cache directory for archpkg
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache == "" {
		xdgCache = filepath.Join(home, ".cache")
	}

	return filepath.Join(xdgCache, "archpkg"), nil
}

// AliasesPath returns the path of the optional repos.toml alias file,
// which lives next to the main config file.
func AliasesPath() (string, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(configPath), "repos.toml"), nil
}
