package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Companion: CompanionConfig{
			Host:           "127.0.0.1",
			Port:           9863,
			AppID:          "ytmdeck",
			AppName:        "ytmdeck",
			AppVersion:     "1.0.0",
			RequestTimeout: 5000,
		},
		Auth: AuthConfig{
			Store: "file",
		},
		Realtime: RealtimeConfig{
			ConnectTimeout: 15000,
			BackoffBase:    500,
			BackoffMax:     30000,
			MaxAttempts:    5,
		},
		Sync: SyncConfig{
			FreshWindow:    30000,
			PollInterval:   5000,
			ProgressRedraw: "tick",
		},
		Notify: NotifyConfig{
			Threshold: "warning",
			Cooldown:  30000,
		},
		Render: RenderConfig{
			KeySize:      144,
			ArtCacheSize: 32,
			Background:   "#000000",
			Foreground:   "#FFFFFF",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Companion
	if c.Companion.Host == "" {
		c.Companion.Host = d.Companion.Host
	}
	if c.Companion.Port == 0 {
		c.Companion.Port = d.Companion.Port
	}
	if c.Companion.AppID == "" {
		c.Companion.AppID = d.Companion.AppID
	}
	if c.Companion.AppName == "" {
		c.Companion.AppName = d.Companion.AppName
	}
	if c.Companion.AppVersion == "" {
		c.Companion.AppVersion = d.Companion.AppVersion
	}
	if c.Companion.RequestTimeout == 0 {
		c.Companion.RequestTimeout = d.Companion.RequestTimeout
	}

	// Auth
	if c.Auth.Store == "" {
		c.Auth.Store = d.Auth.Store
	}

	// Realtime
	if c.Realtime.ConnectTimeout == 0 {
		c.Realtime.ConnectTimeout = d.Realtime.ConnectTimeout
	}
	if c.Realtime.BackoffBase == 0 {
		c.Realtime.BackoffBase = d.Realtime.BackoffBase
	}
	if c.Realtime.BackoffMax == 0 {
		c.Realtime.BackoffMax = d.Realtime.BackoffMax
	}
	if c.Realtime.MaxAttempts == 0 {
		c.Realtime.MaxAttempts = d.Realtime.MaxAttempts
	}

	// Sync
	if c.Sync.FreshWindow == 0 {
		c.Sync.FreshWindow = d.Sync.FreshWindow
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = d.Sync.PollInterval
	}
	if c.Sync.ProgressRedraw == "" {
		c.Sync.ProgressRedraw = d.Sync.ProgressRedraw
	}

	// Notify
	if c.Notify.Threshold == "" {
		c.Notify.Threshold = d.Notify.Threshold
	}
	if c.Notify.Cooldown == 0 {
		c.Notify.Cooldown = d.Notify.Cooldown
	}

	// Render
	if c.Render.KeySize == 0 {
		c.Render.KeySize = d.Render.KeySize
	}
	if c.Render.ArtCacheSize == 0 {
		c.Render.ArtCacheSize = d.Render.ArtCacheSize
	}
	if c.Render.Background == "" {
		c.Render.Background = d.Render.Background
	}
	if c.Render.Foreground == "" {
		c.Render.Foreground = d.Render.Foreground
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
