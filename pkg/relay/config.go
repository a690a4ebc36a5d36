package relay

import (
	"net/http"
	"time"
)

// Config holds configuration for the relay and its sessions.
type Config struct {
	// Timeouts

	// ReadTimeout is the maximum time to wait for a message from the client.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// Limits

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// SendBuffer is the per-session outbound channel capacity. When a
	// recipient's buffer is full, events for it are dropped, not queued.
	// Default: 256.
	SendBuffer int

	// WebSocket

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the request origin.
	// Default: allows all origins (not recommended for production).
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxMessageSize:    64 * 1024, // 64KB
		SendBuffer:        256,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
	}
}

// withDefaults fills zero fields with defaults and returns the config.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	def := DefaultConfig()
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = def.WriteBufferSize
	}
	return c
}
