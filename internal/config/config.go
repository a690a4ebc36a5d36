// Package config loads server configuration from antapp.json with
// environment variable overrides. File settings are the baseline;
// ANTAPP_* variables win so deployments can override without editing
// the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "antapp.json"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
)

// Config is the complete antapp.json configuration.
type Config struct {
	// Name is the deployment name, used in logs.
	Name string `json:"name,omitempty"`

	// Addr is the listen address (e.g., ":8080").
	Addr string `json:"addr,omitempty"`

	// DatabaseURL selects the entity store backend:
	//   - empty: in-memory store
	//   - "postgres://..." : PostgreSQL
	//   - anything else: treated as a SQLite file path
	DatabaseURL string `json:"databaseUrl,omitempty"`

	// RedisAddr, when set, selects the Redis entity store (host:port).
	// Takes precedence over DatabaseURL.
	RedisAddr string `json:"redisAddr,omitempty"`

	// AllowedOrigin restricts WebSocket and API origins. Empty allows all.
	AllowedOrigin string `json:"allowedOrigin,omitempty"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `json:"logLevel,omitempty"`

	// Snapshot contains project export settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Relay contains realtime relay settings.
	Relay RelayConfig `json:"relay,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SnapshotConfig selects where project snapshots are written.
type SnapshotConfig struct {
	// Dir is a local directory for snapshots.
	Dir string `json:"dir,omitempty"`

	// Bucket is an S3 bucket for snapshots. When set, it wins over Dir.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the S3 key prefix (default: "snapshots/").
	Prefix string `json:"prefix,omitempty"`
}

// RelayConfig tunes the realtime relay. Durations are strings in
// time.ParseDuration format ("30s", "1m").
type RelayConfig struct {
	// ReadTimeout is the per-connection read deadline.
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout is the per-message write deadline.
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// HeartbeatInterval is the time between pings.
	HeartbeatInterval string `json:"heartbeatInterval,omitempty"`

	// SendBuffer is the per-session outbound buffer size.
	SendBuffer int `json:"sendBuffer,omitempty"`
}

// Load reads the configuration file at path. A missing file is not an
// error: defaults plus environment overrides still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{configPath: path}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Find locates antapp.json starting at dir and walking up to the
// filesystem root. Returns the path, or dir/antapp.json if none exists.
func Find(dir string) string {
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Join(dir, ConfigFileName)
		}
		dir = parent
	}
}

// applyEnv overlays ANTAPP_* environment variables.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&c.Addr, "ANTAPP_ADDR")
	overlay(&c.DatabaseURL, "ANTAPP_DATABASE_URL")
	overlay(&c.RedisAddr, "ANTAPP_REDIS_ADDR")
	overlay(&c.AllowedOrigin, "ANTAPP_ALLOWED_ORIGIN")
	overlay(&c.LogLevel, "ANTAPP_LOG_LEVEL")
	overlay(&c.Snapshot.Dir, "ANTAPP_SNAPSHOT_DIR")
	overlay(&c.Snapshot.Bucket, "ANTAPP_SNAPSHOT_BUCKET")
	overlay(&c.Snapshot.Prefix, "ANTAPP_SNAPSHOT_PREFIX")
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Snapshot.Prefix == "" {
		c.Snapshot.Prefix = "snapshots/"
	}
}

// Path returns where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// ParseDuration parses a config duration string, falling back to def
// when the field is empty or malformed.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
