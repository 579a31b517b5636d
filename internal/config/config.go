// Package config provides configuration management for paxdown.
// Configuration is loaded from ~/.config/paxdown/config.yaml with
// sensible defaults for everything except the bot token.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the paxdown configuration.
type Config struct {
	Discord   DiscordConfig `yaml:"discord"`
	ChannelID string        `yaml:"channel_id"`
	Storage   StorageConfig `yaml:"storage"`
	Tick      string        `yaml:"tick"`
}

// DiscordConfig holds the REST credentials and endpoint.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	APIBase string `yaml:"api_base"`
}

// StorageConfig selects and locates the state backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

const (
	// DefaultConfigPath is the default location for the config file.
	DefaultConfigPath = "~/.config/paxdown/config.yaml"

	// DefaultStatePath is where the file backend keeps its state.
	DefaultStatePath = "~/.paxdown/state.json"

	// DefaultTick is the countdown refresh schedule (cron spec).
	DefaultTick = "@every 1m"
)

// Load loads the configuration from the default path. It returns the
// cached config on subsequent calls.
func Load() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = LoadFromPath(DefaultConfigPath)
	})
	return globalConfig, configErr
}

// LoadFromPath loads configuration from a specific file path. A missing
// file yields the defaults (the token then stays empty and the daemon
// refuses to start).
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	cfg.normalize()

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize fills in missing values so partially-filled configs still
// behave correctly.
func (c *Config) normalize() {
	if c.Discord.APIBase == "" {
		c.Discord.APIBase = "https://discord.com/api/v10"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStatePath
	}
	if c.Tick == "" {
		c.Tick = DefaultTick
	}
}

// Validate rejects values normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q (want file or sqlite)", c.Storage.Backend)
	}
	return nil
}

// StatePath returns the storage path, expanded to an absolute path.
func (c *Config) StatePath() string {
	return ExpandPath(c.Storage.Path)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// ResetForTesting resets the global config state. Only use in tests.
func ResetForTesting() {
	configOnce = sync.Once{}
	globalConfig = nil
	configErr = nil
}
