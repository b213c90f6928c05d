// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8000"
	DefaultDatabaseURL    = "sqlite://contactbook.db"
	DefaultTemplateReload = ReloadWatch
)

// Template reload policies.
const (
	// ReloadWatch reparses templates whenever the template directory changes.
	ReloadWatch = "watch"
	// ReloadOnce parses templates at startup and never again.
	ReloadOnce = "once"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Templates TemplatesConfig `toml:"templates"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and request handling limits.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// RequestTimeout bounds each request's context; "0s" disables it.
	RequestTimeout string `toml:"request_timeout"`
	// RateLimit is the per-client request rate in requests per second; 0 disables it.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
	// TransientUnavailable answers transient store failures with 503 instead of 500.
	TransientUnavailable bool `toml:"transient_unavailable"`
}

// DatabaseConfig selects the contact store.
// URL is postgres://, postgresql:// or sqlite://<path>.
type DatabaseConfig struct {
	URL            string `toml:"url"`
	MaxConns       int32  `toml:"max_conns"`
	MigrateOnStart bool   `toml:"migrate_on_start"`
}

// TemplatesConfig holds the template directory and reload policy.
// An empty Dir uses the templates embedded in the binary.
type TemplatesConfig struct {
	Dir    string `toml:"dir"`
	Reload string `toml:"reload"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           DefaultHTTPAddr,
			RequestTimeout: "0s",
		},
		Database: DatabaseConfig{
			URL:            DefaultDatabaseURL,
			MigrateOnStart: true,
		},
		Templates: TemplatesConfig{
			Reload: DefaultTemplateReload,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
