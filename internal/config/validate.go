package config

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Companion.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("companion: %w", err))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := c.Realtime.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("realtime: %w", err))
	}
	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if err := c.Notify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("notify: %w", err))
	}
	if err := c.Render.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("render: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks CompanionConfig for errors.
func (c *CompanionConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must be non-negative")
	}
	return nil
}

// Validate checks AuthConfig for errors.
func (c *AuthConfig) Validate() error {
	switch c.Store {
	case "", "file", "keyring":
		// valid
	default:
		return fmt.Errorf("invalid store: %s (must be file or keyring)", c.Store)
	}
	return nil
}

// Validate checks RealtimeConfig for errors.
func (c *RealtimeConfig) Validate() error {
	if c.ConnectTimeout < 0 || c.BackoffBase < 0 || c.BackoffMax < 0 {
		return errors.New("timeouts must be non-negative")
	}
	if c.BackoffMax != 0 && c.BackoffBase > c.BackoffMax {
		return errors.New("backoff_base must not exceed backoff_max")
	}
	if c.MaxAttempts < 0 {
		return errors.New("max_attempts must be non-negative")
	}
	return nil
}

// Validate checks SyncConfig for errors.
func (c *SyncConfig) Validate() error {
	if c.FreshWindow < 0 || c.PollInterval < 0 {
		return errors.New("intervals must be non-negative")
	}
	switch c.ProgressRedraw {
	case "", "tick", "jump":
		// valid
	default:
		return fmt.Errorf("invalid progress_redraw: %s (must be tick or jump)", c.ProgressRedraw)
	}
	return nil
}

// Validate checks NotifyConfig for errors.
func (c *NotifyConfig) Validate() error {
	switch c.Threshold {
	case "", "debug", "info", "warning", "error":
		// valid
	default:
		return fmt.Errorf("invalid threshold: %s (must be debug, info, warning, or error)", c.Threshold)
	}
	if c.Cooldown < 0 {
		return errors.New("cooldown must be non-negative")
	}
	return nil
}

// Validate checks RenderConfig for errors.
func (c *RenderConfig) Validate() error {
	if c.KeySize < 0 || c.ArtCacheSize < 0 {
		return errors.New("sizes must be non-negative")
	}
	for _, v := range []string{c.Background, c.Foreground} {
		if v == "" {
			continue
		}
		if _, err := colorful.Hex(v); err != nil {
			return fmt.Errorf("invalid color %q: %w", v, err)
		}
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
