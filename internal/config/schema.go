package config

// Config is the root configuration structure.
type Config struct {
	Companion CompanionConfig `toml:"companion"`
	Auth      AuthConfig      `toml:"auth"`
	Realtime  RealtimeConfig  `toml:"realtime"`
	Sync      SyncConfig      `toml:"sync"`
	Notify    NotifyConfig    `toml:"notify"`
	Render    RenderConfig    `toml:"render"`
	Log       LogConfig       `toml:"log"`
}

// CompanionConfig holds the YouTube Music Desktop companion server settings.
type CompanionConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	AppID          string `toml:"app_id"`
	AppName        string `toml:"app_name"`
	AppVersion     string `toml:"app_version"`
	RequestTimeout int    `toml:"request_timeout"`
}

// AuthConfig holds token storage settings.
type AuthConfig struct {
	Store     string `toml:"store"`
	TokenFile string `toml:"token_file"`
}

// RealtimeConfig holds push channel settings. Durations are milliseconds.
type RealtimeConfig struct {
	ConnectTimeout int `toml:"connect_timeout"`
	BackoffBase    int `toml:"backoff_base"`
	BackoffMax     int `toml:"backoff_max"`
	MaxAttempts    int `toml:"max_attempts"`
}

// SyncConfig holds reconciliation settings. Durations are milliseconds.
type SyncConfig struct {
	FreshWindow    int    `toml:"fresh_window"`
	PollInterval   int    `toml:"poll_interval"`
	ProgressRedraw string `toml:"progress_redraw"`
}

// NotifyConfig holds user notification settings.
type NotifyConfig struct {
	Threshold string `toml:"threshold"`
	Cooldown  int    `toml:"cooldown"`
}

// RenderConfig holds key rendering settings.
type RenderConfig struct {
	KeySize      int    `toml:"key_size"`
	ArtCacheSize int    `toml:"art_cache_size"`
	Background   string `toml:"background"`
	Foreground   string `toml:"foreground"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	JSON  bool   `toml:"json"`
}
