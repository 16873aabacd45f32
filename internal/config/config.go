package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.ytmdeckrc, $XDG_CONFIG_HOME/ytmdeck/config.toml, ~/.config/ytmdeck/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the path used when writing a new config file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ytmdeckrc"
	}
	return filepath.Join(home, ".ytmdeckrc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".ytmdeckrc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "ytmdeck", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Companion
	if v := os.Getenv("YTMDECK_COMPANION_HOST"); v != "" {
		cfg.Companion.Host = v
	}
	if v := os.Getenv("YTMDECK_COMPANION_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Companion.Port = i
		}
	}

	// Auth
	if v := os.Getenv("YTMDECK_AUTH_STORE"); v != "" {
		cfg.Auth.Store = v
	}
	if v := os.Getenv("YTMDECK_AUTH_TOKEN_FILE"); v != "" {
		cfg.Auth.TokenFile = v
	}

	// Sync
	if v := os.Getenv("YTMDECK_SYNC_PROGRESS_REDRAW"); v != "" {
		cfg.Sync.ProgressRedraw = v
	}
	if v := os.Getenv("YTMDECK_SYNC_POLL_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sync.PollInterval = i
		}
	}

	// Notify
	if v := os.Getenv("YTMDECK_NOTIFY_THRESHOLD"); v != "" {
		cfg.Notify.Threshold = v
	}

	// Log
	if v := os.Getenv("YTMDECK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("YTMDECK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

// BaseURL returns the companion server REST root.
func (c *CompanionConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d/api/v1", c.Host, c.Port)
}

// Address returns host:port of the companion server.
func (c *CompanionConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns RequestTimeout as a duration.
func (c *CompanionConfig) Timeout() time.Duration {
	return ms(c.RequestTimeout)
}

// ConnectTimeoutDuration returns ConnectTimeout as a duration.
func (c *RealtimeConfig) ConnectTimeoutDuration() time.Duration {
	return ms(c.ConnectTimeout)
}

// BackoffBaseDuration returns BackoffBase as a duration.
func (c *RealtimeConfig) BackoffBaseDuration() time.Duration {
	return ms(c.BackoffBase)
}

// BackoffMaxDuration returns BackoffMax as a duration.
func (c *RealtimeConfig) BackoffMaxDuration() time.Duration {
	return ms(c.BackoffMax)
}

// FreshWindowDuration returns FreshWindow as a duration.
func (c *SyncConfig) FreshWindowDuration() time.Duration {
	return ms(c.FreshWindow)
}

// PollIntervalDuration returns PollInterval as a duration.
func (c *SyncConfig) PollIntervalDuration() time.Duration {
	return ms(c.PollInterval)
}

// CooldownDuration returns Cooldown as a duration.
func (c *NotifyConfig) CooldownDuration() time.Duration {
	return ms(c.Cooldown)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
