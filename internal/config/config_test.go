package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Snapshot.Prefix != "snapshots/" {
		t.Errorf("Snapshot.Prefix = %q, want snapshots/", cfg.Snapshot.Prefix)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{
		"name": "staging",
		"addr": ":9090",
		"databaseUrl": "postgres://localhost/antapp",
		"logLevel": "debug",
		"relay": {"readTimeout": "90s", "sendBuffer": 512}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "staging" || cfg.Addr != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://localhost/antapp" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Relay.SendBuffer != 512 {
		t.Errorf("Relay.SendBuffer = %d, want 512", cfg.Relay.SendBuffer)
	}
	if got := ParseDuration(cfg.Relay.ReadTimeout, time.Minute); got != 90*time.Second {
		t.Errorf("ReadTimeout = %v, want 90s", got)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"addr":`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on malformed JSON")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"addr": ":9090", "logLevel": "warn"}`)
	t.Setenv("ANTAPP_ADDR", ":7070")
	t.Setenv("ANTAPP_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want env override :7070", cfg.Addr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, file value should survive", cfg.LogLevel)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got, want := Find(nested), filepath.Join(root, ConfigFileName); got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFindMissing(t *testing.T) {
	dir := t.TempDir()
	if got, want := Find(dir), filepath.Join(dir, ConfigFileName); got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("", 5*time.Second); got != 5*time.Second {
		t.Errorf("empty = %v, want default", got)
	}
	if got := ParseDuration("bogus", 5*time.Second); got != 5*time.Second {
		t.Errorf("malformed = %v, want default", got)
	}
	if got := ParseDuration("2m", 5*time.Second); got != 2*time.Minute {
		t.Errorf("2m = %v", got)
	}
}
